package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/pdfinsight/internal/models"
)

// ObjectDownloader copies bucket/object to a local path.
type ObjectDownloader func(ctx context.Context, bucket, object, destPath string) error

// NamedDocumentRunner processes a staged PDF under its original filename.
type NamedDocumentRunner interface {
	ProcessNamed(ctx context.Context, pdfPath, originalFilename, prompt string) models.DocumentResult
}

// Ingestor handles storage finalize events by running newly uploaded PDFs
// through the document pipeline with the default prompt.
type Ingestor struct {
	documents NamedDocumentRunner
	download  ObjectDownloader
}

func NewIngestor(documents NamedDocumentRunner, download ObjectDownloader) *Ingestor {
	return &Ingestor{documents: documents, download: download}
}

// Process returns an error only when the object could not be staged, so the
// event may be redelivered. Page failures are logged and recorded per page.
func (i *Ingestor) Process(ctx context.Context, e models.StorageEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if !strings.EqualFold(path.Ext(e.Name), ".pdf") {
		logCtx.Info("Ignoring non-PDF object.")
		return nil
	}
	logCtx.Info("Processing new GCS object.")

	tempDir, err := os.MkdirTemp("", "pdf-ingest-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	originalFilename := path.Base(e.Name)
	localPath := filepath.Join(tempDir, originalFilename)
	if err := i.download(ctx, e.Bucket, e.Name, localPath); err != nil {
		logCtx.Error("Failed to download source PDF.", "error", err)
		return err
	}

	result := i.documents.ProcessNamed(ctx, localPath, originalFilename, "")
	logCtx.Info(fmt.Sprintf("Processed %s with %d errors.", originalFilename, result.FailedCount()), "pages", len(result))
	return nil
}

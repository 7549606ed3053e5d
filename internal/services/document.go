package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/pdfinsight/internal/models"
)

// DocumentOptions tunes a DocumentProcessor.
type DocumentOptions struct {
	// MaxPageWorkers caps concurrent page tasks. Zero or less means unbounded.
	MaxPageWorkers int
	// TempRoot is where per-document scratch directories are created. Empty uses os.TempDir.
	TempRoot string
	// Inspect, when set, validates the PDF and returns its page count, which is
	// cross-checked against the rendered pages.
	Inspect func(pdfPath string) (int, error)
}

// DocumentProcessor fans a PDF out into page tasks and collects their outcomes
// in page order.
type DocumentProcessor struct {
	rasterizer Rasterizer
	extractor  TextExtractor
	pages      PageRunner
	opts       DocumentOptions
}

func NewDocumentProcessor(rasterizer Rasterizer, extractor TextExtractor, pages PageRunner, opts DocumentOptions) *DocumentProcessor {
	return &DocumentProcessor{rasterizer: rasterizer, extractor: extractor, pages: pages, opts: opts}
}

// Process analyses the PDF at pdfPath, recording its base name as the original filename.
func (d *DocumentProcessor) Process(ctx context.Context, pdfPath, prompt string) models.DocumentResult {
	return d.ProcessNamed(ctx, pdfPath, filepath.Base(pdfPath), prompt)
}

// ProcessNamed analyses the PDF at pdfPath under the given original filename.
// Document-level failures yield a single error outcome with page number 0.
// The scratch directory is removed on every exit path.
func (d *DocumentProcessor) ProcessNamed(ctx context.Context, pdfPath, originalFilename, prompt string) (result models.DocumentResult) {
	logCtx := slog.With("originalFilename", originalFilename, "pdfPath", pdfPath)
	logCtx.Info("Processing document.")

	defer func() {
		if r := recover(); r != nil {
			result = d.failure(logCtx, originalFilename, fmt.Errorf("panic while processing document: %v", r))
		}
	}()

	tempDir, err := os.MkdirTemp(d.opts.TempRoot, "pdf-pages-*")
	if err != nil {
		return d.failure(logCtx, originalFilename, &AdapterError{Stage: "create temp dir", Err: err})
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logCtx.Error("Failed to remove temp directory.", "path", tempDir, "error", err)
		}
	}()
	logCtx.Debug("Created temp directory.", "path", tempDir)

	// Validation failures are not fatal; the rasterizer decides whether the
	// document is readable.
	pageCount := -1
	if d.opts.Inspect != nil {
		n, err := d.opts.Inspect(pdfPath)
		if err != nil {
			logCtx.Warn("PDF validation failed; continuing with rasterization.", "error", &AdapterError{Stage: "validate PDF", Err: err})
		} else {
			pageCount = n
			logCtx = logCtx.With("pageCount", pageCount)
		}
	}

	images, err := d.rasterizer.Rasterize(ctx, pdfPath, tempDir)
	if err != nil {
		return d.failure(logCtx, originalFilename, &AdapterError{Stage: "rasterize PDF", Err: err})
	}
	texts, err := d.extractor.Extract(ctx, pdfPath)
	if err != nil {
		return d.failure(logCtx, originalFilename, &AdapterError{Stage: "extract text", Err: err})
	}
	if len(texts) != len(images) {
		logCtx.Warn("Text page count differs from image count.", "images", len(images), "textPages", len(texts))
	}
	if len(images) == 0 {
		logCtx.Warn("Document produced no page images.")
	}
	if pageCount >= 0 && pageCount != len(images) {
		logCtx.Warn("Rendered page count differs from the PDF page count.", "images", len(images))
	}

	result = make(models.DocumentResult, len(images))
	var eg errgroup.Group
	if d.opts.MaxPageWorkers > 0 {
		eg.SetLimit(d.opts.MaxPageWorkers)
	}
	for i, imagePath := range images {
		in := PageInput{
			ImagePath:        imagePath,
			PageNumber:       i + 1,
			OriginalFilename: originalFilename,
			Prompt:           prompt,
		}
		if i < len(texts) {
			in.PageText = texts[i]
		}
		eg.Go(func() error {
			result[i] = d.pages.Run(ctx, in)
			return nil
		})
	}
	_ = eg.Wait()

	logCtx.Info("Document processed.", "pages", len(result), "failedPages", result.FailedCount())
	return result
}

func (d *DocumentProcessor) failure(logCtx *slog.Logger, originalFilename string, err error) models.DocumentResult {
	logCtx.Error("Document processing failed.", "error", err)
	return models.DocumentResult{models.ErrorOutcome(originalFilename, 0, "", err)}
}

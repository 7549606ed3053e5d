package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Lllllllleong/pdfinsight/internal/models"
)

// BatchProgress is called after each document finishes, with the number of
// documents done so far.
type BatchProgress func(summary models.DocumentSummary, done, total int)

// BatchProcessor runs documents one after another. A failing document never
// stops the batch; cancellation marks the remaining documents as skipped.
type BatchProcessor struct {
	documents DocumentRunner
}

func NewBatchProcessor(documents DocumentRunner) *BatchProcessor {
	return &BatchProcessor{documents: documents}
}

func (b *BatchProcessor) ProcessAll(ctx context.Context, pdfPaths []string, prompt string, progress BatchProgress) models.BatchResult {
	total := len(pdfPaths)
	batch := models.BatchResult{Documents: make([]models.DocumentSummary, 0, total)}
	slog.Info("Starting batch.", "documents", total)

	for i, path := range pdfPaths {
		if err := ctx.Err(); err != nil {
			slog.Warn("Batch cancelled; skipping remaining documents.", "remaining", total-i, "error", err)
			for _, skipped := range pdfPaths[i:] {
				batch.Documents = append(batch.Documents, models.DocumentSummary{Path: skipped, Skipped: true, Error: err.Error()})
			}
			break
		}

		result := b.processOne(ctx, path, prompt)
		summary := models.DocumentSummary{Path: path, Pages: len(result), FailedPages: result.FailedCount()}
		batch.Documents = append(batch.Documents, summary)
		batch.Attempted++
		batch.FailedPages += summary.FailedPages
		slog.Info(fmt.Sprintf("Processed %s with %d errors.", path, summary.FailedPages))

		if progress != nil {
			progress(summary, i+1, total)
		}
	}

	slog.Info("Finished processing all PDFs.", "attempted", batch.Attempted, "failedPages", batch.FailedPages)
	return batch
}

func (b *BatchProcessor) processOne(ctx context.Context, path, prompt string) (result models.DocumentResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while processing document: %v", r)
			slog.Error("Document processing panicked.", "path", path, "error", err)
			result = models.DocumentResult{models.ErrorOutcome(filepath.Base(path), 0, "", err)}
		}
	}()
	return b.documents.Process(ctx, path, prompt)
}

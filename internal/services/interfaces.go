package services

import (
	"context"

	"github.com/Lllllllleong/pdfinsight/internal/models"
)

// Rasterizer renders every page of a PDF into outDir, returning image paths in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outDir string) ([]string, error)
}

// TextExtractor returns the plain text of each page in page order.
type TextExtractor interface {
	Extract(ctx context.Context, pdfPath string) ([]string, error)
}

// InferenceClient is the boundary to the remote generation and embedding service.
type InferenceClient interface {
	Generate(ctx context.Context, prompt string, image []byte) (string, error)
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ResultStore durably records one page result per call.
type ResultStore interface {
	Insert(ctx context.Context, record models.PageRecord) error
}

// PageRunner processes a single page and never fails; errors become outcomes.
type PageRunner interface {
	Run(ctx context.Context, in PageInput) models.PageOutcome
}

// DocumentRunner processes a single PDF and never fails; errors become outcomes.
type DocumentRunner interface {
	Process(ctx context.Context, pdfPath, prompt string) models.DocumentResult
}

// Package pdfdoc adapts the PDF libraries used to turn a document into page
// images and page text.
package pdfdoc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the render resolution used when none is configured.
const DefaultDPI = 150

// FitzRasterizer renders PDF pages to PNG files using MuPDF.
type FitzRasterizer struct {
	DPI float64
}

// NewFitzRasterizer creates a rasterizer rendering at dpi (DefaultDPI when <= 0).
func NewFitzRasterizer(dpi float64) *FitzRasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &FitzRasterizer{DPI: dpi}
}

// Rasterize writes one PNG per page into outDir and returns their paths in page order.
func (r *FitzRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	defer doc.Close()

	prefix := trimExt(filepath.Base(pdfPath))
	paths := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		png, err := doc.ImagePNG(i, r.DPI)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}

		outPath := filepath.Join(outDir, fmt.Sprintf("%s-%04d.png", prefix, i+1))
		if err := os.WriteFile(outPath, png, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write image for page %d: %w", i+1, err)
		}
		paths = append(paths, outPath)
	}
	return paths, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

package pdfdoc

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PlainTextExtractor reads the text layer of each page.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a text extractor.
func NewPlainTextExtractor() *PlainTextExtractor { return &PlainTextExtractor{} }

// Extract returns one string per page in page order. Pages without a readable
// text layer yield an empty string so positions stay aligned with page numbers.
func (e *PlainTextExtractor) Extract(ctx context.Context, pdfPath string) (pages []string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("text extraction panicked: %v", r)
		}
	}()

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("could not read PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}

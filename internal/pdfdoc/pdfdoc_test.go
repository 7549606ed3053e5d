package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestPDF writes a minimal PDF with one Helvetica text line per page.
// An empty string produces a page with no content.
func writeTestPDF(t *testing.T, dir, name string, pageTexts ...string) string {
	t.Helper()

	var buf bytes.Buffer
	total := 3 + 2*len(pageTexts)
	offsets := make([]int, total+1)
	write := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := ""
	for i := range pageTexts {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	write(1, "<< /Type /Catalog /Pages 2 0 R >>")
	write(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pageTexts)))
	write(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	for i, text := range pageTexts {
		pageNum := 4 + 2*i
		contentNum := pageNum + 1
		stream := ""
		if text != "" {
			stream = fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
		}
		write(pageNum, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentNum))
		write(contentNum, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", total+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xref)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeImageDownscalesPreservingAspect(t *testing.T) {
	out, err := NormalizeImage(encodePNG(t, 400, 200), 100)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestNormalizeImageNeverUpscales(t *testing.T) {
	in := encodePNG(t, 80, 40)
	out, err := NormalizeImage(in, 100)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	_, err := NormalizeImage([]byte("not an image"), 100)
	require.Error(t, err)
}

func TestPlainTextExtractorPerPage(t *testing.T) {
	path := writeTestPDF(t, t.TempDir(), "doc.pdf", "Hello", "", "World")

	pages, err := NewPlainTextExtractor().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Contains(t, pages[0], "Hello")
	assert.Empty(t, pages[1])
	assert.Contains(t, pages[2], "World")
}

func TestPlainTextExtractorMissingFile(t *testing.T) {
	_, err := NewPlainTextExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}

func TestInspectCountsPages(t *testing.T) {
	path := writeTestPDF(t, t.TempDir(), "doc.pdf", "One", "Two")

	pages, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
}

func TestInspectRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	_, err := Inspect(path)
	require.Error(t, err)
}

func TestFitzRasterizerWritesOrderedPages(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPDF(t, dir, "report.pdf", "First", "Second")
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0o700))

	images, err := NewFitzRasterizer(36).Rasterize(context.Background(), path, outDir)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, filepath.Join(outDir, "report-0001.png"), images[0])
	assert.Equal(t, filepath.Join(outDir, "report-0002.png"), images[1])

	data, err := os.ReadFile(images[0])
	require.NoError(t, err)
	_, err = png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
}

func TestFitzRasterizerHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPDF(t, dir, "doc.pdf", "A")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFitzRasterizer(0).Rasterize(ctx, path, dir)
	require.ErrorIs(t, err, context.Canceled)
}

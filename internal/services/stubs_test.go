package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfinsight/internal/models"
)

// pagePNG encodes a tiny image whose width identifies the page (10px per page number).
func pagePNG(t *testing.T, pageNumber int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10*pageNumber, 4))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pageOf recovers the page number encoded by pagePNG.
func pageOf(data []byte) int {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return -1
	}
	return cfg.Width / 10
}

type stubRasterizer struct {
	t      *testing.T
	pages  int
	err    error
	outDir string
	calls  int
}

func (s *stubRasterizer) Rasterize(_ context.Context, _ string, outDir string) ([]string, error) {
	s.calls++
	s.outDir = outDir
	if s.err != nil {
		return nil, s.err
	}
	paths := make([]string, 0, s.pages)
	for i := 1; i <= s.pages; i++ {
		p := filepath.Join(outDir, fmt.Sprintf("page-%04d.png", i))
		require.NoError(s.t, os.WriteFile(p, pagePNG(s.t, i), 0o644))
		paths = append(paths, p)
	}
	return paths, nil
}

type stubExtractor struct {
	texts []string
	err   error
}

func (s *stubExtractor) Extract(context.Context, string) ([]string, error) {
	return s.texts, s.err
}

type stubInference struct {
	mu            sync.Mutex
	generate      func(ctx context.Context, image []byte) (string, error)
	embed         func(ctx context.Context, text string) ([]float64, error)
	generateCalls int
	embedCalls    []string
}

func (s *stubInference) Generate(ctx context.Context, _ string, image []byte) (string, error) {
	s.mu.Lock()
	s.generateCalls++
	s.mu.Unlock()
	if s.generate == nil {
		return `{"value":"ok"}`, nil
	}
	return s.generate(ctx, image)
}

func (s *stubInference) Embed(ctx context.Context, text string) ([]float64, error) {
	s.mu.Lock()
	s.embedCalls = append(s.embedCalls, text)
	s.mu.Unlock()
	if s.embed == nil {
		return []float64{0.1, 0.2}, nil
	}
	return s.embed(ctx, text)
}

func (s *stubInference) generated() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generateCalls
}

type memStore struct {
	mu      sync.Mutex
	records []models.PageRecord
	err     error
}

func (m *memStore) Insert(_ context.Context, record models.PageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

func (m *memStore) all() []models.PageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.PageRecord(nil), m.records...)
}

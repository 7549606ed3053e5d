package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/Lllllllleong/pdfinsight/internal/config"
	"github.com/Lllllllleong/pdfinsight/internal/gcp"
	"github.com/Lllllllleong/pdfinsight/internal/pdfdoc"
	"github.com/Lllllllleong/pdfinsight/internal/store"
)

// Pipeline bundles the processors built from configuration. It owns the
// remote clients and releases them on Close.
type Pipeline struct {
	Documents *DocumentProcessor
	Batch     *BatchProcessor

	closers []func() error
}

// NewPipeline creates the inference client, the configured result store and
// the page, document and batch processors on top of them.
func NewPipeline(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	vertexClient, err := gcp.NewVertexClient(ctx, gcp.VertexConfig{
		ProjectID:       cfg.ProjectID,
		Region:          cfg.VertexAIRegion,
		APIKey:          cfg.GeminiAPIKey,
		GenerationModel: cfg.GenerationModel,
		EmbeddingModel:  cfg.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	p := &Pipeline{closers: []func() error{vertexClient.Close}}

	resultStore, err := newResultStore(ctx, cfg)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.closers = append(p.closers, resultStore.Close)

	policy := RetryPolicy{
		MaxAttempts:    cfg.RetryMaxAttempts,
		InitialBackoff: cfg.RetryInitialBackoff,
	}
	var limiter *rate.Limiter
	if cfg.InferenceRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.InferenceRPS), max(cfg.InferenceBurst, 1))
	}

	pages := NewPageProcessor(
		NewResilientInference(vertexClient, limiter, cfg.CallTimeout, policy),
		NewResilientStore(resultStore, cfg.CallTimeout, policy),
		PageOptions{MaxImageWidth: cfg.MaxImageWidth, Timeout: cfg.PageTimeout},
	)
	p.Documents = NewDocumentProcessor(
		pdfdoc.NewFitzRasterizer(pdfdoc.DefaultDPI),
		pdfdoc.NewPlainTextExtractor(),
		pages,
		DocumentOptions{MaxPageWorkers: cfg.MaxPageWorkers, Inspect: pdfdoc.Inspect},
	)
	p.Batch = NewBatchProcessor(p.Documents)

	slog.Info("Pipeline initialized.",
		"resultStore", cfg.ResultStore,
		"generationModel", cfg.GenerationModel,
		"embeddingModel", cfg.EmbeddingModel,
		"maxPageWorkers", cfg.MaxPageWorkers,
	)
	return p, nil
}

type closableStore interface {
	ResultStore
	Close() error
}

func newResultStore(ctx context.Context, cfg *config.Config) (closableStore, error) {
	switch cfg.ResultStore {
	case config.StoreMongo:
		s, err := store.NewMongoStore(ctx, cfg.MongoConnection, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, fmt.Errorf("failed to create mongo store: %w", err)
		}
		return s, nil
	default:
		client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID, cfg.FirestoreDatabase)
		if err != nil {
			return nil, err
		}
		return store.NewFirestoreStore(client, cfg.FirestoreCollection), nil
	}
}

// Close releases every client, returning all close errors joined.
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

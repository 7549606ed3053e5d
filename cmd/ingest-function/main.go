package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/pdfinsight/internal/config"
	"github.com/Lllllllleong/pdfinsight/internal/gcp"
	"github.com/Lllllllleong/pdfinsight/internal/models"
	"github.com/Lllllllleong/pdfinsight/internal/services"
)

var (
	ingestor *services.Ingestor
	once     sync.Once
	initErr  error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("IngestPDF", ingestPDF)
}

// main is required by the Go Functions Framework.
func main() {}

func newIngestor(ctx context.Context) (*services.Ingestor, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	pipeline, err := services.NewPipeline(ctx, cfg)
	if err != nil {
		return nil, err
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		_ = pipeline.Close()
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	download := func(ctx context.Context, bucket, object, destPath string) error {
		return gcp.DownloadObject(ctx, storageClient, bucket, object, destPath)
	}
	return services.NewIngestor(pipeline.Documents, download), nil
}

// ingestPDF runs every PDF finalized in the watched bucket through the page pipeline.
func ingestPDF(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		ingestor, initErr = newIngestor(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var event models.StorageEvent
	if err := json.Unmarshal(e.Data(), &event); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}
	return ingestor.Process(ctx, event)
}

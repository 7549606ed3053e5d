package gcp

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
)

// DownloadObject streams gs://bucket/object into destPath.
func DownloadObject(ctx context.Context, client *storage.Client, bucket, object, destPath string) error {
	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer reader.Close()

	localFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file at %s: %w", destPath, err)
	}
	if _, err := io.Copy(localFile, reader); err != nil {
		_ = localFile.Close()
		return fmt.Errorf("failed to copy GCS object to local file: %w", err)
	}
	if err := localFile.Close(); err != nil {
		return fmt.Errorf("failed to finalize local file %s: %w", destPath, err)
	}
	return nil
}

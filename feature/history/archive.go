package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"listing-sync/core/reconcile"
	"listing-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// ArchiveSink writes every run report as a JSON object to
// <prefix>/<yyyy-mm-dd>/<run_id>.json.
type ArchiveSink struct {
	client storage.Client
	bucket string
	prefix string
}

// NewArchiveSink creates an archive sink for bucket.
func NewArchiveSink(client storage.Client, bucket, prefix string) *ArchiveSink {
	return &ArchiveSink{client: client, bucket: bucket, prefix: prefix}
}

// Name implements ReportSink.
func (s *ArchiveSink) Name() string { return "archive" }

// ObjectKey returns the object name for result.
func (s *ArchiveSink) ObjectKey(result *reconcile.RunResult) string {
	return path.Join(s.prefix, result.StartedAt.UTC().Format("2006-01-02"), result.RunID+".json")
}

// Report uploads result as indented JSON.
func (s *ArchiveSink) Report(ctx context.Context, result *reconcile.RunResult) error {
	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", result.RunID, err)
	}

	key := s.ObjectKey(result)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

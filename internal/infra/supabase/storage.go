package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bfcgroup/portal-api-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Storage client (implements port.ReceiptStorage)
// Receipts live in a public bucket; the returned URL needs no auth.
// ============================================================

// ReceiptBucket wraps uploads to a single Supabase Storage bucket.
type ReceiptBucket struct {
	client *Client
	bucket string
}

// NewReceiptBucket creates a storage adapter for the given bucket.
func NewReceiptBucket(client *Client, bucket string) *ReceiptBucket {
	return &ReceiptBucket{client: client, bucket: bucket}
}

// UploadReceipt stores the file at path and returns its public URL.
func (b *ReceiptBucket) UploadReceipt(ctx context.Context, path, contentType string, data []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "Storage.UploadReceipt")
	defer span.End()
	span.SetAttributes(
		attribute.String("storage.bucket", b.bucket),
		attribute.String("storage.path", path),
	)

	c := b.client
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, b.bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("storage: upload failed",
			zap.String("bucket", b.bucket),
			zap.String("path", path),
			zap.Error(err),
		)
		return "", &domain.ErrExternalService{Service: "supabase/storage", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("storage: upload non-2xx",
			zap.String("bucket", b.bucket),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return "", &domain.ErrExternalService{
			Service: "supabase/storage",
			Err:     fmt.Errorf("upload returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, b.bucket, path), nil
}

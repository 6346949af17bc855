// Package s3store uploads receipt files to an S3 bucket. It is the
// alternative to Supabase Storage for deployments that keep documents
// in AWS (RECEIPTS_BACKEND=s3).
package s3store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bfcgroup/portal-api-go/internal/domain"
)

var tracer = otel.Tracer("s3store")

// ReceiptBucket implements port.ReceiptStorage on top of S3.
type ReceiptBucket struct {
	client *awss3.Client
	bucket string
	region string
	logger *zap.Logger
}

// New builds an S3-backed receipt store. Credentials come from the
// static pair when provided, otherwise from the default AWS chain.
func New(ctx context.Context, region, bucket, accessKey, secretKey string, logger *zap.Logger) (*ReceiptBucket, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &ReceiptBucket{
		client: awss3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
		logger: logger,
	}, nil
}

// UploadReceipt stores the file under key path and returns its public
// URL. The bucket is expected to allow public reads on receipt objects.
func (b *ReceiptBucket) UploadReceipt(ctx context.Context, path, contentType string, data []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "S3.UploadReceipt")
	defer span.End()
	span.SetAttributes(
		attribute.String("s3.bucket", b.bucket),
		attribute.String("s3.key", path),
	)

	_, err := b.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		b.logger.Error("s3: upload failed",
			zap.String("bucket", b.bucket),
			zap.String("key", path),
			zap.Error(err),
		)
		return "", &domain.ErrExternalService{Service: "s3", Err: err}
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.region, path), nil
}

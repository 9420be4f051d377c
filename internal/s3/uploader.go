// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package s3

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/netSkope/posture-export-tool/internal/config"
	"go.uber.org/zap"
)

const (
	// Max retries for S3 operations
	maxS3Retries = 5
	// Initial retry delay
	initialRetryDelay = 1 * time.Second
)

// Uploader ships generated report files to S3. Upload is optional and runs
// after the export pipeline has completed; its failures never retroactively
// fail the run.
type Uploader struct {
	client   *s3.Client
	uploader *manager.Uploader
	config   *config.Config
	logger   *zap.Logger
}

// NewUploader creates an S3 uploader. Credentials come from explicit config
// values when set, otherwise the SDK default chain (environment, shared
// config, SSO cache, IAM role).
func NewUploader(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.AWSSessionToken)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Custom endpoint for LocalStack testing
		if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
			logger.Info("Using custom S3 endpoint", zap.String("endpoint", endpoint))
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
		u.Concurrency = 3
	})

	return &Uploader{
		client:   client,
		uploader: uploader,
		config:   cfg,
		logger:   logger,
	}, nil
}

// ReportKey builds the S3 key for one report file. Layout:
// {prefix}/{subscriptionID}/{runStamp}/{filename}
func ReportKey(prefix, subscriptionID, runStamp, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s", prefix, subscriptionID, runStamp, filename)
}

// UploadReportDir uploads every CSV file in the report directory and returns
// the uploaded keys, sorted by file name.
func (u *Uploader) UploadReportDir(ctx context.Context, dir, subscriptionID, runStamp string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list report files: %w", err)
	}
	if len(matches) == 0 {
		u.logger.Info("No report files to upload", zap.String("dir", dir))
		return nil, nil
	}
	sort.Strings(matches)

	keys := make([]string, 0, len(matches))
	for _, path := range matches {
		key := ReportKey(u.config.S3Prefix, subscriptionID, runStamp, filepath.Base(path))
		if err := u.UploadFileWithRetry(ctx, path, key); err != nil {
			return keys, fmt.Errorf("failed to upload %s: %w", filepath.Base(path), err)
		}
		keys = append(keys, key)
	}

	u.logger.Info("Report directory uploaded",
		zap.String("dir", dir),
		zap.String("bucket", u.config.S3Bucket),
		zap.Int("files", len(keys)))

	return keys, nil
}

// UploadFile uploads a single file. The transfer manager switches to
// multipart automatically for large files.
func (u *Uploader) UploadFile(ctx context.Context, path, key string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	u.logger.Info("Uploading file to S3",
		zap.String("file", path),
		zap.String("s3_key", key),
		zap.Int64("size", info.Size()))

	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.config.S3Bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	u.logger.Info("File uploaded successfully",
		zap.String("s3_key", key),
		zap.Int64("size", info.Size()))

	return nil
}

// UploadFileWithRetry uploads a file with exponential backoff.
func (u *Uploader) UploadFileWithRetry(ctx context.Context, path, key string) error {
	var lastErr error
	delay := initialRetryDelay

	for attempt := 1; attempt <= maxS3Retries; attempt++ {
		err := u.UploadFile(ctx, path, key)
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt < maxS3Retries {
			u.logger.Warn("Upload failed, retrying",
				zap.String("file", path),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxS3Retries),
				zap.Error(err))

			time.Sleep(delay)
			delay = time.Duration(float64(delay) * 2)
		}
	}

	return fmt.Errorf("upload failed after %d attempts: %w", maxS3Retries, lastErr)
}

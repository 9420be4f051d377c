// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/netSkope/posture-export-tool/internal/arg"
	"github.com/netSkope/posture-export-tool/internal/config"
	pelog "github.com/netSkope/posture-export-tool/internal/log"
	"github.com/netSkope/posture-export-tool/internal/pipeline"
	"github.com/netSkope/posture-export-tool/internal/s3"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := pelog.NewLogger(cfg.LogDir, "posture-export", cfg.Debug, cfg.LogStdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting posture export",
		zap.String("output_path", cfg.OutputPath),
		zap.Bool("include_compliance", cfg.IncludeCompliance),
		zap.Bool("include_recommendations", cfg.IncludeRecommendations))

	// Authenticate against Azure
	session, err := arg.NewSession(cfg, logger)
	if err != nil {
		logger.Error("Failed to create Azure session", zap.Error(err))
		os.Exit(1)
	}

	ctx := context.Background()

	// Run the export pipeline
	runner := pipeline.NewRunner(cfg, session, logger)
	result, err := runner.Run(ctx)
	if err != nil {
		logger.Error("Export failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Export pipeline finished",
		zap.String("state", result.State.String()),
		zap.Int("jobs", len(result.Jobs)))

	// Optional: upload the report directory to S3
	if cfg.S3Bucket != "" {
		uploader, err := s3.NewUploader(ctx, cfg, logger)
		if err != nil {
			logger.Error("Failed to create S3 uploader", zap.Error(err))
			os.Exit(1)
		}

		runStamp := result.Started.Format("20060102_150405")
		keys, err := uploader.UploadReportDir(ctx, cfg.OutputPath, session.SubscriptionID(), runStamp)
		if err != nil {
			logger.Error("Report upload failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("Reports uploaded to S3",
			zap.String("bucket", cfg.S3Bucket),
			zap.Int("files", len(keys)))
	}

	// Print summary
	if !cfg.Quiet {
		fmt.Printf("\n=== Posture Export Summary ===\n")
		fmt.Printf("Tenant ID: %s\n", session.TenantID())
		fmt.Printf("Subscription: %s (%s)\n", session.SubscriptionName(), session.SubscriptionID())
		fmt.Printf("Output directory: %s\n", cfg.OutputPath)
		fmt.Printf("Compliance export: %v\n", cfg.IncludeCompliance)
		fmt.Printf("Recommendations export: %v\n", cfg.IncludeRecommendations)
		fmt.Printf("\nFiles:\n")
		for i, job := range result.Jobs {
			if job.Skipped {
				fmt.Printf("  %d. %s: no data, skipped\n", i+1, job.Label)
				continue
			}
			fmt.Printf("  %d. %s: %s (%d rows)\n", i+1, job.Label, job.Path, job.RowCount)
		}
		if cfg.S3Bucket != "" {
			fmt.Printf("\nS3 bucket: %s\n", cfg.S3Bucket)
			fmt.Printf("S3 prefix: %s\n", cfg.S3Prefix)
		}
		fmt.Printf("==============================\n")
	}

	logger.Info("Posture export completed successfully")
}

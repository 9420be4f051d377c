// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.OutputPath != "./Reports" {
		t.Errorf("expected default output path ./Reports, got %q", cfg.OutputPath)
	}
	if cfg.S3Prefix != "posture-export" {
		t.Errorf("expected default s3 prefix posture-export, got %q", cfg.S3Prefix)
	}
	if cfg.LogDir != "/tmp" {
		t.Errorf("expected default log dir /tmp, got %q", cfg.LogDir)
	}

	// Explicit values are not overwritten.
	cfg = &Config{OutputPath: "/data/reports"}
	applyDefaults(cfg)
	if cfg.OutputPath != "/data/reports" {
		t.Errorf("explicit output path should stand, got %q", cfg.OutputPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:   "minimal valid",
			config: &Config{OutputPath: "./Reports"},
		},
		{
			name: "client secret without tenant",
			config: &Config{
				AzureClientSecret: "secret",
				AzureClientID:     "client",
			},
			wantErr: true,
		},
		{
			name: "client secret without client id",
			config: &Config{
				AzureClientSecret: "secret",
				AzureTenantID:     "tenant",
			},
			wantErr: true,
		},
		{
			name: "full service principal",
			config: &Config{
				AzureClientSecret: "secret",
				AzureTenantID:     "tenant",
				AzureClientID:     "client",
			},
		},
		{
			name:    "s3 bucket without region",
			config:  &Config{S3Bucket: "bucket"},
			wantErr: true,
		},
		{
			name:   "s3 bucket with region",
			config: &Config{S3Bucket: "bucket", AWSRegion: "us-east-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("POSTURE_EXPORT_SUBSCRIPTION", "Production")
	t.Setenv("POSTURE_EXPORT_OUTPUT_PATH", "/data/reports")
	t.Setenv("POSTURE_EXPORT_INCLUDE_COMPLIANCE", "true")
	t.Setenv("POSTURE_EXPORT_INCLUDE_RECOMMENDATIONS", "1")
	t.Setenv("POSTURE_EXPORT_DATE_SUFFIX", "false")
	t.Setenv("POSTURE_EXPORT_S3_BUCKET", "reports-bucket")
	t.Setenv("POSTURE_EXPORT_AWS_REGION", "us-west-2")
	t.Setenv("AZURE_TENANT_ID", "tenant-1")
	t.Setenv("AZURE_CLIENT_ID", "client-1")

	cfg := &Config{}
	loadFromEnv(cfg)

	if cfg.Subscription != "Production" {
		t.Errorf("unexpected subscription %q", cfg.Subscription)
	}
	if cfg.OutputPath != "/data/reports" {
		t.Errorf("unexpected output path %q", cfg.OutputPath)
	}
	if !cfg.IncludeCompliance {
		t.Error("IncludeCompliance should be true")
	}
	if !cfg.IncludeRecommendations {
		t.Error("IncludeRecommendations should be true")
	}
	if cfg.DateSuffix {
		t.Error("DateSuffix should be false")
	}
	if cfg.S3Bucket != "reports-bucket" || cfg.AWSRegion != "us-west-2" {
		t.Errorf("unexpected S3 settings %q %q", cfg.S3Bucket, cfg.AWSRegion)
	}
	if cfg.AzureTenantID != "tenant-1" || cfg.AzureClientID != "client-1" {
		t.Errorf("unexpected Azure identity %q %q", cfg.AzureTenantID, cfg.AzureClientID)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posture-export.yaml")
	data := `subscription: Staging
output_path: /var/reports
include_compliance: true
date_suffix: true
azure_tenant_id: tenant-9
s3_bucket: bucket-9
s3_prefix: custom-prefix
aws_region: eu-west-1
log_dir: /var/log/posture
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{}
	if err := loadFromYAML(cfg, path); err != nil {
		t.Fatalf("loadFromYAML failed: %v", err)
	}

	if cfg.Subscription != "Staging" {
		t.Errorf("unexpected subscription %q", cfg.Subscription)
	}
	if cfg.OutputPath != "/var/reports" {
		t.Errorf("unexpected output path %q", cfg.OutputPath)
	}
	if !cfg.IncludeCompliance {
		t.Error("IncludeCompliance should be true")
	}
	if cfg.IncludeRecommendations {
		t.Error("IncludeRecommendations should be false")
	}
	if !cfg.DateSuffix {
		t.Error("DateSuffix should be true")
	}
	if cfg.AzureTenantID != "tenant-9" {
		t.Errorf("unexpected tenant %q", cfg.AzureTenantID)
	}
	if cfg.S3Prefix != "custom-prefix" || cfg.S3Bucket != "bucket-9" || cfg.AWSRegion != "eu-west-1" {
		t.Errorf("unexpected S3 settings %+v", cfg)
	}
	if cfg.LogDir != "/var/log/posture" {
		t.Errorf("unexpected log dir %q", cfg.LogDir)
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	cfg := &Config{}
	err := loadFromYAML(cfg, filepath.Join(t.TempDir(), "absent.yaml"))
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadFromYAML_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("subscription: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{}
	if err := loadFromYAML(cfg, path); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

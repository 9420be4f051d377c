// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for one export run. It is built once from
// invocation arguments and never mutated afterwards.
type Config struct {
	// Export selection
	Subscription           string // subscription id or display name; empty = first accessible
	OutputPath             string // default: ./Reports
	IncludeCompliance      bool
	IncludeRecommendations bool
	DateSuffix             bool // append _yyyyMMdd_HHmmss to file names

	// Azure authentication (env or YAML only, never flags)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// Optional S3 upload of the report directory
	S3Bucket  string
	S3Prefix  string // default: posture-export
	AWSRegion string

	// Optional static AWS credentials; default chain is used when unset
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSSessionToken    string

	// Logging
	LogDir    string // default: /tmp
	LogStdout bool
	Debug     bool

	// Output control
	Quiet bool // suppress the console summary block
}

// LoadConfig loads configuration from CLI flags, environment variables, and
// YAML file. Priority: CLI flags > environment variables > YAML file > defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// CLI flags
	subscription := flag.String("subscription", "", "Subscription id or display name (default: first accessible)")
	outputPath := flag.String("output-path", "", "Report output directory (default: ./Reports)")
	includeCompliance := flag.Bool("include-compliance", false, "Export regulatory compliance data")
	includeRecommendations := flag.Bool("include-recommendations", false, "Export unhealthy security recommendations")
	dateSuffix := flag.Bool("date-suffix", false, "Append run timestamp to report file names")
	s3Bucket := flag.String("s3-bucket", "", "S3 bucket for report upload (optional)")
	s3Prefix := flag.String("s3-prefix", "", "S3 key prefix (default: posture-export)")
	awsRegion := flag.String("aws-region", "", "AWS region for S3 upload")
	logDir := flag.String("log-dir", "", "Log directory (default: /tmp)")
	logStdout := flag.Bool("log-stdout", false, "Log to stdout instead of a file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	quiet := flag.Bool("quiet", false, "Suppress the console summary block")
	configFile := flag.String("config-file", "posture-export.yaml", "Config file path (default: posture-export.yaml)")

	flag.Parse()

	// Load from YAML file if it exists
	if *configFile != "" {
		if err := loadFromYAML(cfg, *configFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnv(cfg)

	// Override with CLI flags (highest priority)
	if *subscription != "" {
		cfg.Subscription = *subscription
	}
	if *outputPath != "" {
		cfg.OutputPath = *outputPath
	}
	if *includeCompliance {
		cfg.IncludeCompliance = true
	}
	if *includeRecommendations {
		cfg.IncludeRecommendations = true
	}
	if *dateSuffix {
		cfg.DateSuffix = true
	}
	if *s3Bucket != "" {
		cfg.S3Bucket = *s3Bucket
	}
	if *s3Prefix != "" {
		cfg.S3Prefix = *s3Prefix
	}
	if *awsRegion != "" {
		cfg.AWSRegion = *awsRegion
	}
	if *logDir != "" {
		cfg.LogDir = *logDir
	}
	if *logStdout {
		cfg.LogStdout = true
	}
	if *debug {
		cfg.Debug = true
	}
	if *quiet {
		cfg.Quiet = true
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills unset fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.OutputPath == "" {
		cfg.OutputPath = "./Reports"
	}
	if cfg.S3Prefix == "" {
		cfg.S3Prefix = "posture-export"
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "/tmp"
	}
}

// validate checks cross-field requirements.
func validate(cfg *Config) error {
	if cfg.AzureClientSecret != "" {
		if cfg.AzureTenantID == "" {
			return fmt.Errorf("azure_tenant_id is required when a client secret is configured")
		}
		if cfg.AzureClientID == "" {
			return fmt.Errorf("azure_client_id is required when a client secret is configured")
		}
	}
	if cfg.S3Bucket != "" && cfg.AWSRegion == "" {
		return fmt.Errorf("aws-region is required when -s3-bucket is set")
	}
	return nil
}

// loadFromYAML loads configuration from a YAML file.
func loadFromYAML(cfg *Config, filepath string) error {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return err
	}

	var yamlCfg struct {
		Subscription           string `yaml:"subscription"`
		OutputPath             string `yaml:"output_path"`
		IncludeCompliance      bool   `yaml:"include_compliance"`
		IncludeRecommendations bool   `yaml:"include_recommendations"`
		DateSuffix             bool   `yaml:"date_suffix"`
		AzureTenantID          string `yaml:"azure_tenant_id"`
		AzureClientID          string `yaml:"azure_client_id"`
		AzureClientSecret      string `yaml:"azure_client_secret"`
		S3Bucket               string `yaml:"s3_bucket"`
		S3Prefix               string `yaml:"s3_prefix"`
		AWSRegion              string `yaml:"aws_region"`
		LogDir                 string `yaml:"log_dir"`
	}

	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return err
	}

	if yamlCfg.Subscription != "" {
		cfg.Subscription = yamlCfg.Subscription
	}
	if yamlCfg.OutputPath != "" {
		cfg.OutputPath = yamlCfg.OutputPath
	}
	cfg.IncludeCompliance = yamlCfg.IncludeCompliance
	cfg.IncludeRecommendations = yamlCfg.IncludeRecommendations
	cfg.DateSuffix = yamlCfg.DateSuffix
	if yamlCfg.AzureTenantID != "" {
		cfg.AzureTenantID = yamlCfg.AzureTenantID
	}
	if yamlCfg.AzureClientID != "" {
		cfg.AzureClientID = yamlCfg.AzureClientID
	}
	if yamlCfg.AzureClientSecret != "" {
		cfg.AzureClientSecret = yamlCfg.AzureClientSecret
	}
	if yamlCfg.S3Bucket != "" {
		cfg.S3Bucket = yamlCfg.S3Bucket
	}
	if yamlCfg.S3Prefix != "" {
		cfg.S3Prefix = yamlCfg.S3Prefix
	}
	if yamlCfg.AWSRegion != "" {
		cfg.AWSRegion = yamlCfg.AWSRegion
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}

	return nil
}

// loadFromEnv loads configuration from environment variables. Azure and AWS
// credentials honor the standard variables their SDKs use.
func loadFromEnv(cfg *Config) {
	if val := os.Getenv("POSTURE_EXPORT_SUBSCRIPTION"); val != "" {
		cfg.Subscription = val
	}
	if val := os.Getenv("POSTURE_EXPORT_OUTPUT_PATH"); val != "" {
		cfg.OutputPath = val
	}
	if val := os.Getenv("POSTURE_EXPORT_INCLUDE_COMPLIANCE"); val != "" {
		cfg.IncludeCompliance = (val == "true" || val == "1")
	}
	if val := os.Getenv("POSTURE_EXPORT_INCLUDE_RECOMMENDATIONS"); val != "" {
		cfg.IncludeRecommendations = (val == "true" || val == "1")
	}
	if val := os.Getenv("POSTURE_EXPORT_DATE_SUFFIX"); val != "" {
		cfg.DateSuffix = (val == "true" || val == "1")
	}
	if val := os.Getenv("POSTURE_EXPORT_S3_BUCKET"); val != "" {
		cfg.S3Bucket = val
	}
	if val := os.Getenv("POSTURE_EXPORT_S3_PREFIX"); val != "" {
		cfg.S3Prefix = val
	}
	if val := os.Getenv("POSTURE_EXPORT_AWS_REGION"); val != "" {
		cfg.AWSRegion = val
	}
	if val := os.Getenv("POSTURE_EXPORT_LOG_DIR"); val != "" {
		cfg.LogDir = val
	}
	if val := os.Getenv("AZURE_TENANT_ID"); val != "" {
		cfg.AzureTenantID = val
	}
	if val := os.Getenv("AZURE_CLIENT_ID"); val != "" {
		cfg.AzureClientID = val
	}
	if val := os.Getenv("AZURE_CLIENT_SECRET"); val != "" {
		cfg.AzureClientSecret = val
	}
	if val := os.Getenv("AWS_ACCESS_KEY_ID"); val != "" {
		cfg.AWSAccessKeyID = val
	}
	if val := os.Getenv("AWS_SECRET_ACCESS_KEY"); val != "" {
		cfg.AWSSecretAccessKey = val
	}
	if val := os.Getenv("AWS_SESSION_TOKEN"); val != "" {
		cfg.AWSSessionToken = val
	}
}

// Copyright (c) 2025 Netskope, Inc. All rights reserved.

// Package pipeline runs the export: validate the session, bind the
// subscription, prepare the output directory, execute the query catalog in
// order, write each result set to CSV, and finish with a one-row run summary.
// Execution is strictly sequential and fail-fast; the first fatal error aborts
// the remaining steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/netSkope/posture-export-tool/internal/catalog"
	"github.com/netSkope/posture-export-tool/internal/config"
	"github.com/netSkope/posture-export-tool/internal/export"
	"go.uber.org/zap"
)

// Session is the authenticated query capability the runner needs. Implemented
// by arg.Session; tests substitute a fake.
type Session interface {
	Validate(ctx context.Context) error
	Bind(ctx context.Context, selector string) error
	Query(ctx context.Context, query string, top int) ([]export.Row, error)
	TenantID() string
	SubscriptionID() string
	SubscriptionName() string
}

// JobResult describes one serialize-and-write unit of work.
type JobResult struct {
	Label    string
	Path     string
	RowCount int
	Skipped  bool // true when the result set was empty and no file was written
}

// RunResult is the outcome of one pipeline run.
type RunResult struct {
	State    State
	Jobs     []JobResult
	Started  time.Time
	Finished time.Time
}

// Runner executes the export pipeline for one immutable config.
type Runner struct {
	cfg     *config.Config
	session Session
	writer  *export.Writer
	logger  *zap.Logger
	now     func() time.Time
}

// NewRunner creates a pipeline runner.
func NewRunner(cfg *config.Config, session Session, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		session: session,
		writer:  export.NewWriter(logger),
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes the pipeline. On failure the returned error is a *StepError
// naming the failing step, the result's state is Failed, and the jobs that
// completed before the failure are still reported.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{State: StateNotStarted, Started: r.now()}

	fail := func(err *StepError) (*RunResult, error) {
		result.State = StateFailed
		result.Finished = r.now()
		r.logger.Error("Pipeline step failed",
			zap.String("step", err.Step),
			zap.String("kind", err.Kind.String()),
			zap.Error(err.Err))
		return result, err
	}

	// Step 1: validate environment
	result.State = StateValidatingEnvironment
	if r.session == nil {
		return fail(stepError("validate environment", KindPrerequisite,
			fmt.Errorf("no query session configured")))
	}
	if err := r.session.Validate(ctx); err != nil {
		return fail(stepError("validate environment", KindAuthentication, err))
	}

	// Step 2: bind subscription if a selector was given
	if r.cfg.Subscription != "" {
		result.State = StateBindingSubscription
		if err := r.session.Bind(ctx, r.cfg.Subscription); err != nil {
			return fail(stepError("bind subscription", KindSubscriptionBinding, err))
		}
	}

	// Step 3: ensure the output directory exists and is writable
	result.State = StatePreparingOutput
	if err := r.prepareOutputDir(); err != nil {
		return fail(stepError("prepare output directory", KindIO, err))
	}

	// One timestamp per run so all suffixed files sort together.
	stamp := result.Started.Format("20060102_150405")

	// Steps 4-8: the query catalog, honoring the feature toggles
	result.State = StateExporting
	defs := catalog.Definitions(r.cfg.IncludeCompliance, r.cfg.IncludeRecommendations)
	for _, def := range defs {
		job, err := r.runExportJob(ctx, def, stamp)
		if err != nil {
			return fail(err)
		}
		result.Jobs = append(result.Jobs, job)
	}

	// Step 9: run summary. Failures here are logged and swallowed; a run that
	// exported its data is Completed even if the summary could not be written.
	result.State = StateSummarizing
	if job, err := r.writeSummary(result.Started, stamp); err != nil {
		r.logger.Warn("Failed to write run summary",
			zap.String("step", summaryLabel),
			zap.Error(err))
	} else {
		result.Jobs = append(result.Jobs, job)
	}

	result.State = StateCompleted
	result.Finished = r.now()
	r.logger.Info("Pipeline completed",
		zap.Int("jobs", len(result.Jobs)),
		zap.Duration("elapsed", result.Finished.Sub(result.Started)),
		zap.String("outcome", "success"))

	return result, nil
}

// runExportJob executes one catalog query and writes its result set.
func (r *Runner) runExportJob(ctx context.Context, def catalog.Definition, stamp string) (JobResult, *StepError) {
	rows, err := r.session.Query(ctx, def.Query(), catalog.RowCap)
	if err != nil {
		return JobResult{}, stepError(def.Label, KindQuery, err)
	}

	rs := export.ResultSet{
		Label:    def.Label,
		BaseName: def.BaseName,
		Rows:     rows,
		Cap:      catalog.RowCap,
	}

	if rs.Truncated() {
		r.logger.Warn("Result set hit the row cap and is truncated",
			zap.String("label", rs.Label),
			zap.Int("cap", rs.Cap))
	}

	path := r.filePath(def.BaseName, stamp)
	if err := r.writer.Write(rs, path); err != nil {
		kind := KindIO
		if errors.Is(err, export.ErrSerialization) {
			kind = KindSerialization
		}
		return JobResult{}, stepError(def.Label, kind, err)
	}

	return JobResult{
		Label:    def.Label,
		Path:     path,
		RowCount: len(rows),
		Skipped:  rs.Empty(),
	}, nil
}

// prepareOutputDir creates the output directory and proves it is writable by
// writing and deleting a probe file.
func (r *Runner) prepareOutputDir() error {
	if err := os.MkdirAll(r.cfg.OutputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	probe := filepath.Join(r.cfg.OutputPath, ".write-probe")
	if err := os.WriteFile(probe, []byte("probe"), 0644); err != nil {
		return fmt.Errorf("output directory is not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("failed to remove probe file: %w", err)
	}

	r.logger.Info("Output directory ready",
		zap.String("path", r.cfg.OutputPath))
	return nil
}

// filePath builds the destination path for a base name, applying the optional
// run-timestamp suffix.
func (r *Runner) filePath(baseName, stamp string) string {
	name := baseName + ".csv"
	if r.cfg.DateSuffix {
		name = fmt.Sprintf("%s_%s.csv", baseName, stamp)
	}
	return filepath.Join(r.cfg.OutputPath, name)
}

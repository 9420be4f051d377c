// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package pipeline

import (
	"fmt"
	"time"

	"github.com/netSkope/posture-export-tool/internal/export"
)

const (
	summaryLabel    = "Export Summary"
	summaryBaseName = "ExportSummary"
)

// buildSummary produces the single metadata row describing this run.
func (r *Runner) buildSummary(started time.Time) export.Row {
	var row export.Row
	row.Set("RunTimestamp", started.Format("2006-01-02 15:04:05"))
	row.Set("TenantId", r.session.TenantID())
	row.Set("SubscriptionId", r.session.SubscriptionID())
	row.Set("SubscriptionName", r.session.SubscriptionName())
	row.Set("OutputPath", r.cfg.OutputPath)
	row.Set("IncludeCompliance", r.cfg.IncludeCompliance)
	row.Set("IncludeRecommendations", r.cfg.IncludeRecommendations)
	return row
}

// writeSummary emits the run summary as the final export job. The caller
// treats errors as non-fatal.
func (r *Runner) writeSummary(started time.Time, stamp string) (JobResult, error) {
	rs := export.ResultSet{
		Label:    summaryLabel,
		BaseName: summaryBaseName,
		Rows:     []export.Row{r.buildSummary(started)},
	}

	path := r.filePath(summaryBaseName, stamp)
	if err := r.writer.Write(rs, path); err != nil {
		return JobResult{}, fmt.Errorf("failed to write summary: %w", err)
	}

	return JobResult{
		Label:    summaryLabel,
		Path:     path,
		RowCount: 1,
	}, nil
}

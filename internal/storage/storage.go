// Package storage exports resolved reports. Sinks are write-only; nothing
// here is read back by the engine.
package storage

import (
	"context"
	"errors"

	"rewardscope/internal/model"
)

// ReportSink receives the results of one run.
type ReportSink interface {
	PutReports(ctx context.Context, runID string, results []model.BatchResult) error
}

// Record is the exported shape of one batch entry.
type Record struct {
	RunID string `json:"run_id"`
	model.BatchResult
}

// Multi fans results out to every sink and joins their errors.
type Multi []ReportSink

func (m Multi) PutReports(ctx context.Context, runID string, results []model.BatchResult) error {
	var errs []error
	for _, sink := range m {
		if err := sink.PutReports(ctx, runID, results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

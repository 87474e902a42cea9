package pipeline

import (
	"errors"
	"log/slog"
	"time"
)

// FileResult is the outcome of one input file.
type FileResult struct {
	File      string
	Read      int
	Malformed int
	Kept      int
	Written   int
	Users     int
	Err       error
}

// Empty reports whether nothing survived the filter, so no write was made.
func (r FileResult) Empty() bool { return r.Err == nil && r.Kept == 0 }

// Report aggregates one pipeline run.
type Report struct {
	RunID          string
	SourceDir      string
	Files          []string
	Cleared        int64
	Attempted      int
	Succeeded      int
	Failed         int
	Empty          int
	RecordsRead    int
	Malformed      int
	RecordsKept    int
	RecordsWritten int
	Failures       []FileResult
	Started        time.Time
	Duration       time.Duration
}

func (r *Report) add(res FileResult) {
	r.Attempted++
	r.RecordsRead += res.Read
	r.Malformed += res.Malformed
	r.RecordsKept += res.Kept
	r.RecordsWritten += res.Written
	switch {
	case res.Err != nil:
		r.Failed++
		r.Failures = append(r.Failures, res)
	case res.Empty():
		r.Empty++
		r.Succeeded++
	default:
		r.Succeeded++
	}
}

// Err joins every per-file error, or returns nil when all files succeeded.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

func (r *Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", r.RunID),
		slog.String("source_dir", r.SourceDir),
		slog.Int("files", len(r.Files)),
		slog.Int64("cleared", r.Cleared),
		slog.Int("attempted", r.Attempted),
		slog.Int("succeeded", r.Succeeded),
		slog.Int("failed", r.Failed),
		slog.Int("empty", r.Empty),
		slog.Int("records_read", r.RecordsRead),
		slog.Int("malformed", r.Malformed),
		slog.Int("records_kept", r.RecordsKept),
		slog.Int("records_written", r.RecordsWritten),
		slog.Duration("duration", r.Duration),
	)
}

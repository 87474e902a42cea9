// Package pipeline runs the full-reload load of archived posts: list the
// input files, clear the sink once, then transform and insert each file.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spacesedan/wctweets/internal/db"
	"github.com/spacesedan/wctweets/internal/document"
	"github.com/spacesedan/wctweets/internal/metrics"
	"github.com/spacesedan/wctweets/internal/processing"
)

type Options struct {
	SourceDir    string
	MaxFiles     int
	Workers      int
	AllowedLangs []string
}

type Runner struct {
	sink        db.Sink
	transformer *processing.Transformer
	opts        Options
	logger      *slog.Logger
}

func NewRunner(sink db.Sink, opts Options, logger *slog.Logger) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		sink:        sink,
		transformer: processing.NewTransformer(opts.AllowedLangs),
		opts:        opts,
		logger:      logger,
	}
}

// Run performs one load. The returned error is fatal: a missing source
// directory, a failed clear or cancellation. Per-file failures are only in
// the report; see Report.Err.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		SourceDir: r.opts.SourceDir,
		Started:   time.Now(),
	}
	logger := r.logger.With(slog.String("run_id", report.RunID))
	metrics.EtlRuns.Inc()
	defer func() {
		report.Duration = time.Since(report.Started)
		metrics.ObserveRunDuration(report.Started)
	}()

	files, err := processing.ListInputFiles(r.opts.SourceDir, r.opts.MaxFiles)
	if err != nil {
		logger.Error("[Pipeline] Cannot list input files", slog.String("error", err.Error()))
		return report, err
	}
	report.Files = files
	logger.Info("[Pipeline] Discovered input files", slog.Int("count", len(files)))

	cleared, err := r.sink.Clear(ctx)
	if err != nil {
		logger.Error("[Pipeline] Failed to clear sink, nothing written", slog.String("error", err.Error()))
		return report, &ClearError{Cause: err}
	}
	report.Cleared = cleared

	results, err := r.processAll(ctx, logger, files)
	for _, res := range results {
		if res.File != "" {
			report.add(res)
		}
	}
	return report, err
}

// processAll returns one result per file in file order. Files not started
// because ctx ended have a zero result.
func (r *Runner) processAll(ctx context.Context, logger *slog.Logger, files []string) ([]FileResult, error) {
	results := make([]FileResult, len(files))

	if r.opts.Workers == 1 {
		for i, name := range files {
			if err := ctx.Err(); err != nil {
				logger.Warn("[Pipeline] context canceled", slog.Int("remaining", len(files)-i))
				return results, err
			}
			results[i] = r.processFile(ctx, logger, name)
		}
		return results, nil
	}

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i, name := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = r.processFile(ctx, logger, name)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		logger.Warn("[Pipeline] context canceled")
		return results, err
	}
	return results, nil
}

func (r *Runner) processFile(ctx context.Context, logger *slog.Logger, name string) FileResult {
	res := FileResult{File: name}
	l := logger.With(slog.String("file", name))

	batch, err := document.ReadFile(filepath.Join(r.opts.SourceDir, name))
	if err != nil {
		res.Err = &ReadError{File: name, Cause: err}
		l.Error("[Pipeline] Failed to read file", slog.String("error", err.Error()))
		metrics.IncFile(metrics.OUTCOME_FAILED)
		return res
	}
	res.Read = len(batch.Docs)
	res.Malformed = batch.Malformed
	metrics.MalformedRecords.Add(float64(batch.Malformed))

	posts := r.transformer.Transform(batch.Docs)
	res.Kept = len(posts)
	res.Users = len(processing.SummarizeByUser(posts))

	if len(posts) == 0 {
		l.Info("[Pipeline] No posts survived the filter, skipping write", slog.Int("read", res.Read))
		metrics.IncFile(metrics.OUTCOME_EMPTY)
		return res
	}

	n, err := r.sink.InsertMany(ctx, posts)
	res.Written = n
	metrics.RecordsWritten.Add(float64(n))
	if err != nil {
		res.Err = &SinkWriteError{File: name, Inserted: n, Cause: err}
		l.Error("[Pipeline] Failed to write posts",
			slog.Int("kept", res.Kept),
			slog.Int("inserted", n),
			slog.String("error", err.Error()))
		metrics.IncFile(metrics.OUTCOME_FAILED)
		return res
	}

	l.Info("[Pipeline] Inserted posts",
		slog.Int("read", res.Read),
		slog.Int("kept", res.Kept),
		slog.Int("users", res.Users),
		slog.Int("written", n))
	metrics.IncFile(metrics.OUTCOME_OK)
	return res
}

// Describe is a one-line summary for the end of a run.
func Describe(r *Report) string {
	return fmt.Sprintf("%d/%d files ok, %d failed, %d records written", r.Succeeded, r.Attempted, r.Failed, r.RecordsWritten)
}

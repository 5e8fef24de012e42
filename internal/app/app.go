package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/haytac/emojifix/internal/config"
	"github.com/haytac/emojifix/internal/discover"
	"github.com/haytac/emojifix/internal/fsx"
	"github.com/haytac/emojifix/internal/logging"
	"github.com/haytac/emojifix/internal/table"
	"github.com/haytac/emojifix/pkg/interfaces"
)

// Runner repairs every file discovered under the configured root.
type Runner struct {
	fs       afero.Fs
	cfg      *config.AppConfig
	table    *table.Table
	observer interfaces.Observer
	now      func() time.Time
}

// Option customises a Runner.
type Option func(*Runner)

// WithObserver sets the receiver of per-file outcomes.
func WithObserver(o interfaces.Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithClock overrides time.Now for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner. cfg must already be validated.
func NewRunner(fs afero.Fs, cfg *config.AppConfig, t *table.Table, opts ...Option) *Runner {
	r := &Runner{
		fs:       fs,
		cfg:      cfg,
		table:    t,
		observer: interfaces.NopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run discovers candidate files and repairs each one independently.
//
// A discovery failure is returned as an error and nothing is processed.
// Per-file failures are recorded in the Report (see Report.Err) and never stop the run.
// If ctx is cancelled, files not yet started are skipped and ctx.Err() is
// returned together with the partial report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	l := logging.ContextualLogger(map[string]interface{}{
		"root":    r.cfg.Root,
		"pattern": r.cfg.Pattern,
		"dry_run": r.cfg.DryRun,
	})

	report := &Report{
		Root:      r.cfg.Root,
		Pattern:   r.cfg.Pattern,
		DryRun:    r.cfg.DryRun,
		StartedAt: r.now(),
	}

	paths, err := discover.Discover(r.fs, r.cfg.Root, r.cfg.Pattern)
	if err != nil {
		l.Error().Err(err).Msg("File discovery failed")
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	l.Info().Int("files", len(paths)).Int("table_entries", r.table.Len()).Msg("Starting repair")

	w := newFileWorker(r.fs, r.table, r.cfg.DryRun)
	flush := newOrderedFlush(len(paths), func(res FileResult) {
		switch res.Status {
		case StatusFixed, StatusWouldFix:
			r.observer.Fixed(res.Path, res.Replacements, res.Status == StatusWouldFix)
		case StatusFailed:
			r.observer.Failed(res.Path, res.err)
		}
		report.Files = append(report.Files, res)
	})

	workers := r.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			flush.done(i, w.process(path))
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = r.now()
	report.finalize()

	l.Info().
		Int("inspected", report.Summary.Inspected).
		Int("fixed", report.Summary.Fixed).
		Int("failed", report.Summary.Failed).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Repair finished")

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// orderedFlush hands results to emit in index order as soon as every earlier
// index has finished. emit is called with the lock held, one result at a time.
type orderedFlush struct {
	mu      sync.Mutex
	pending []*FileResult
	next    int
	emit    func(FileResult)
}

func newOrderedFlush(n int, emit func(FileResult)) *orderedFlush {
	return &orderedFlush{pending: make([]*FileResult, n), emit: emit}
}

func (f *orderedFlush) done(i int, res FileResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[i] = &res
	for f.next < len(f.pending) && f.pending[f.next] != nil {
		f.emit(*f.pending[f.next])
		f.pending[f.next] = nil
		f.next++
	}
}

// WriteReport stores report as indented JSON at path, atomically.
func WriteReport(fs afero.Fs, path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := fsx.WriteFileAtomic(fs, path, append(data, '\n')); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("Wrote run report")
	return nil
}

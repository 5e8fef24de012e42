package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/haytac/emojifix/internal/fsx"
	"github.com/haytac/emojifix/internal/metrics"
	"github.com/haytac/emojifix/internal/repair"
	"github.com/haytac/emojifix/internal/table"
)

// fileWorker runs the read -> repair -> write-back pipeline for one file at a time.
// It holds no per-file state, so one worker is shared by all goroutines.
type fileWorker struct {
	fs     afero.Fs
	table  *table.Table
	dryRun bool
}

func newFileWorker(fs afero.Fs, t *table.Table, dryRun bool) *fileWorker {
	return &fileWorker{fs: fs, table: t, dryRun: dryRun}
}

func (w *fileWorker) process(path string) FileResult {
	l := log.With().Str("path", path).Logger()

	raw, err := afero.ReadFile(w.fs, path)
	if err != nil {
		return w.fail(path, OpRead, err, false)
	}
	metrics.FilesInspected.Inc()

	res := repair.Repair(raw, w.table)
	if res.Lenient {
		metrics.LenientDecodes.Inc()
		l.Warn().Msg("File is not valid UTF-8, invalid bytes replaced with U+FFFD")
	}
	for corrupted, n := range res.Hits {
		metrics.Replacements.WithLabelValues(corrupted).Add(float64(n))
	}

	if !res.Changed {
		l.Debug().Msg("No corrupted sequences found")
		return FileResult{Path: path, Status: StatusUnchanged, Lenient: res.Lenient}
	}

	if w.dryRun {
		metrics.FilesFixed.WithLabelValues("dry_run").Inc()
		l.Info().Int("replacements", res.Replacements).Msg("Would fix file")
		return FileResult{Path: path, Status: StatusWouldFix, Replacements: res.Replacements, Lenient: res.Lenient}
	}

	if _, err := fsx.WriteIfChanged(w.fs, path, res.Content, res.Changed); err != nil {
		return w.fail(path, OpWrite, err, res.Lenient)
	}
	metrics.FilesFixed.WithLabelValues("write").Inc()
	l.Info().Int("replacements", res.Replacements).Msg("Fixed file")
	return FileResult{Path: path, Status: StatusFixed, Replacements: res.Replacements, Lenient: res.Lenient}
}

func (w *fileWorker) fail(path, op string, err error, lenient bool) FileResult {
	fe := &FileError{Path: path, Op: op, Err: err}
	metrics.FileErrors.WithLabelValues(op).Inc()
	log.Error().Err(err).Str("path", path).Str("op", op).Msg("Error processing file")
	return FileResult{Path: path, Status: StatusFailed, Lenient: lenient, Error: err.Error(), err: fe}
}

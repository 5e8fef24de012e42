package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Registry holds the emojifix collectors. It is separate from the default
// registry so the textfile output carries no Go runtime noise.
var Registry = prometheus.NewRegistry()

var (
	// FilesInspected counts files read and run through the table.
	FilesInspected = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "emojifix_files_inspected_total",
			Help: "Total number of files read and checked for corrupted emoji.",
		},
	)

	// FilesFixed counts files written back (or that would be, in dry-run).
	FilesFixed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "emojifix_files_fixed_total",
			Help: "Total number of files whose content changed.",
		},
		[]string{"mode"}, // mode: write, dry_run
	)

	// Replacements counts replaced occurrences per corrupted sequence.
	// Label values are bounded by the replacement table.
	Replacements = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "emojifix_replacements_total",
			Help: "Total number of corrupted sequences replaced.",
		},
		[]string{"corrupted"},
	)

	// FileErrors counts per-file failures.
	FileErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "emojifix_file_errors_total",
			Help: "Total number of files that failed to be read or written.",
		},
		[]string{"op"}, // op: read, write
	)

	// LenientDecodes counts files that held invalid UTF-8.
	LenientDecodes = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "emojifix_lenient_decodes_total",
			Help: "Total number of files decoded with replacement characters for invalid UTF-8.",
		},
	)
)

// WriteTextfile dumps the registry in the node_exporter textfile format.
// An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return err
	}
	log.Debug().Str("path", path).Msg("Wrote metrics textfile")
	return nil
}

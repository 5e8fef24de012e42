package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/haytac/emojifix/internal/app"
	"github.com/haytac/emojifix/internal/config"
	"github.com/haytac/emojifix/internal/metrics"
)

const completionMessage = "Emoji encoding fixed!"

// consoleObserver prints one line per fixed or failed file.
type consoleObserver struct {
	out         io.Writer
	fixedPrefix string
}

func (o consoleObserver) Fixed(path string, _ int, dryRun bool) {
	prefix := o.fixedPrefix
	if prefix == "" {
		prefix = "Fixed"
		if dryRun {
			prefix = "Would fix"
		}
	}
	fmt.Fprintf(o.out, "%s: %s\n", prefix, path)
}

func (o consoleObserver) Failed(path string, err error) {
	if inner := errors.Unwrap(err); inner != nil {
		err = inner
	}
	fmt.Fprintf(o.out, "Error processing %s: %v\n", path, err)
}

type runFlags struct {
	workers     int
	reportFile  string
	metricsFile string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 1, "number of files processed in parallel")
	cmd.Flags().StringVar(&f.reportFile, "report", "", "write a JSON run report to this file")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this file")
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.AppConfig) {
	if cmd.Flags().Changed("workers") {
		cfg.Workers = f.workers
	}
	if cmd.Flags().Changed("report") {
		cfg.ReportFile = f.reportFile
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
}

func newFixCmd(opts *rootOptions) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Repair corrupted emoji in every matching file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg == nil {
				return fmt.Errorf("critical: configuration not loaded")
			}
			cfg := *opts.cfg
			flags.apply(cmd, &cfg)

			out := cmd.OutOrStdout()
			report, err := runRepair(cmd, &cfg, consoleObserver{out: out})
			if err != nil {
				return err
			}

			verb := "modified"
			if cfg.DryRun {
				verb = "would be modified"
			}
			fmt.Fprintf(out, "%d file(s) %s, %d inspected\n", report.Summary.Fixed, verb, report.Summary.Inspected)
			fmt.Fprintf(out, "\n%s\n", completionMessage)

			if err := report.Err(); err != nil {
				return fmt.Errorf("%d file(s) could not be processed", report.Summary.Failed)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "List files that need repair without changing them; exits non-zero if any do",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg == nil {
				return fmt.Errorf("critical: configuration not loaded")
			}
			cfg := *opts.cfg
			flags.apply(cmd, &cfg)
			cfg.DryRun = true

			report, err := runRepair(cmd, &cfg, consoleObserver{out: cmd.OutOrStdout(), fixedPrefix: "Needs fix"})
			if err != nil {
				return err
			}
			if err := report.Err(); err != nil {
				return fmt.Errorf("%d file(s) could not be read", report.Summary.Failed)
			}
			if report.Summary.Fixed > 0 {
				return fmt.Errorf("%d of %d file(s) contain corrupted emoji", report.Summary.Fixed, report.Summary.Inspected)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "All %d file(s) are clean\n", report.Summary.Inspected)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// runRepair validates cfg, runs the repair and writes the optional report and metrics files.
func runRepair(cmd *cobra.Command, cfg *config.AppConfig, obs consoleObserver) (*app.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	tbl, err := cfg.BuildTable()
	if err != nil {
		return nil, fmt.Errorf("building replacement table: %w", err)
	}

	fs := afero.NewOsFs()
	report, err := app.NewRunner(fs, cfg, tbl, app.WithObserver(obs)).Run(cmd.Context())
	if err != nil {
		return nil, err
	}

	if cfg.ReportFile != "" {
		if err := app.WriteReport(fs, cfg.ReportFile, report); err != nil {
			log.Error().Err(err).Msg("Failed to write run report")
		}
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Error().Err(err).Str("path", cfg.MetricsFile).Msg("Failed to write metrics textfile")
	}
	return report, nil
}

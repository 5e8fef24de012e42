package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/haytac/emojifix/internal/config"
	"github.com/haytac/emojifix/internal/logging"
)

// rootOptions is shared by all subcommands. cfg is populated in PersistentPreRunE.
type rootOptions struct {
	cfgFile  string
	logLevel string
	root     string
	pattern  string
	dryRun   bool

	cfg *config.AppConfig
}

// NewRootCmd builds the emojifix command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "emojifix",
		Short: "Repair mis-encoded emoji in UI source files.",
		Long: `emojifix finds emoji that were garbled by a UTF-8 / Windows-1252 mix-up
(for example "Ã°Å¸â€œâ€¦" instead of a calendar emoji) and rewrites the files
with the intended characters.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.cfgFile)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = opts.logLevel
			}
			if cmd.Flags().Changed("root") {
				cfg.Root = opts.root
			}
			if cmd.Flags().Changed("pattern") {
				cfg.Pattern = opts.pattern
			}
			if cmd.Flags().Changed("dry-run") {
				cfg.DryRun = opts.dryRun
			}
			logging.Setup(cfg.Log)
			log.Debug().Str("config", opts.cfgFile).Str("root", cfg.Root).Str("pattern", cfg.Pattern).Msg("Configuration loaded")
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./emojifix.yaml, $HOME/.emojifix/emojifix.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.root, "root", config.DefaultRoot, "directory to search")
	cmd.PersistentFlags().StringVar(&opts.pattern, "pattern", config.DefaultPattern, "glob relative to root; ** matches any depth")
	cmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "report what would change without writing files")

	cmd.AddCommand(newFixCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newTableCmd(opts))
	cmd.AddCommand(newDeriveCmd())
	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		// Cobra already printed the error.
		os.Exit(1)
	}
}

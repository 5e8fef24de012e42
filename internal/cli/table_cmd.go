package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/haytac/emojifix/internal/table"
)

func newTableCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the effective replacement table in application order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg == nil {
				return fmt.Errorf("critical: configuration not loaded")
			}
			tbl, err := opts.cfg.BuildTable()
			if err != nil {
				return fmt.Errorf("building replacement table: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "#\tCORRUPTED\tCORRECT\tSHORTCODE")
			for i, e := range tbl.Entries() {
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", i+1, e.Corrupted, e.Correct, table.Shortcode(e.Correct))
			}

			for _, o := range tbl.Overlaps() {
				log.Warn().Str("kind", string(o.Kind)).Msg(o.String() + "; result depends on table order")
			}
			return nil
		},
	}
}

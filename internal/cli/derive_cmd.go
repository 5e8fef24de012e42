package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haytac/emojifix/internal/table"
)

func newDeriveCmd() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "derive <emoji|:shortcode:>...",
		Short: "Show how emoji look after UTF-8 / Windows-1252 corruption",
		Long: `derive prints the corrupted form of each argument, which can be pasted
into the "table" section of the config file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			depths := table.DefaultDepths
			if cmd.Flags().Changed("depth") {
				if depth < 1 {
					return fmt.Errorf("depth must be at least 1, got %d", depth)
				}
				depths = []int{depth}
			}
			for _, arg := range args {
				correct, err := table.ResolveEmoji(arg)
				if err != nil {
					return err
				}
				for _, d := range depths {
					bad, err := table.Corrupt(correct, d)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tdepth=%d\t%s\t%q\n", correct, d, bad, bad)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "corruption depth (default: every depth of the built-in table)")
	return cmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmmoran/designersync/pkg/action/sync"
)

func init() {
	rootCmd.AddCommand(NewSyncCommand())
}

func NewSyncCommand() *cobra.Command {
	// syncCmd represents the designersync sync command
	var syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "apply the designer model to a source file",
		Long:  "Declare the model's fields, drop stale ones and regenerate the initialize method body",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions(c)
			if err != nil {
				return err
			}
			rep, err := sync.Run(fs, opts)
			if err != nil {
				return err
			}
			out := c.OutOrStdout()
			for _, s := range rep.Result.Skipped {
				fmt.Fprintf(out, "skipped %s\n", s)
			}
			for _, ch := range rep.Changes {
				if rep.DryRun {
					fmt.Fprintf(out, "--- %s (-old +new)\n%s\n", ch.File, ch.Diff)
					continue
				}
				fmt.Fprintf(out, "updated %s\n", ch.File)
			}
			if len(rep.Changes) == 0 {
				fmt.Fprintln(out, "up to date")
			}
			return nil
		},
	}
	addOptionFlags(syncCmd)
	return syncCmd
}

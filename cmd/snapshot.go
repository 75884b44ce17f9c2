package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmmoran/designersync/pkg/action/snapshot"
)

func init() {
	rootCmd.AddCommand(NewSnapshotCommand())
}

func NewSnapshotCommand() *cobra.Command {
	var excludeByTagStrings []string

	// snapshotCmd represents the designersync snapshot command
	var snapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "record a source file's designed type in the model",
		Long:  "Write the fields and initialize method statements of the designed type to the designer model",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions(c, excludeByTagStrings...)
			if err != nil {
				return err
			}
			m, err := snapshot.Generate(fs, opts)
			if err != nil {
				return err
			}
			if opts.DryRun {
				diff, err := snapshot.Diff(fs, opts, m)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.OutOrStdout(), "--- %s (-old +new)\n%s\n", opts.Model, diff)
				return nil
			}
			fmt.Fprintf(c.OutOrStdout(), "recorded %s\n", opts.Model)
			return nil
		},
	}
	addOptionFlags(snapshotCmd)
	snapshotCmd.Flags().StringSliceVarP(&excludeByTagStrings, "exclude-tags", "T", []string{}, "leave out fields with matching tags, ex: gorm:embedded")
	return snapshotCmd
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmmoran/designersync/internal/designer"
	"github.com/cmmoran/designersync/internal/model"
	"github.com/cmmoran/designersync/pkg/action/handlers"
)

func init() {
	rootCmd.AddCommand(NewEventCommand())
}

func NewEventCommand() *cobra.Command {
	var (
		h      designer.EventHandler
		params []string
	)

	// eventCmd represents the designersync event command
	var eventCmd = &cobra.Command{
		Use:   "event",
		Short: "insert an event handler",
		Long:  "Merge the designer model, then make sure the designed type has the named event handler",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions(c)
			if err != nil {
				return err
			}
			if h.Parameters, err = parseParams(params); err != nil {
				return err
			}
			ins, err := handlers.Insert(fs, opts, h)
			if err != nil {
				return err
			}
			out := c.OutOrStdout()
			for _, ch := range ins.Changes {
				if opts.DryRun {
					fmt.Fprintf(out, "--- %s (-old +new)\n%s\n", ch.File, ch.Diff)
				}
			}
			fmt.Fprintf(out, "%s:%d\n", ins.File, ins.Line)
			return nil
		},
	}
	addOptionFlags(eventCmd)
	eventCmd.Flags().StringVar(&h.Name, "name", "", "handler method name")
	eventCmd.Flags().StringVar(&h.Class, "class", "", "type receiving the handler (default the designed type)")
	eventCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter as name:type, ex: e:*example.com/widgets.ClickEventArgs")
	eventCmd.Flags().StringArrayVar(&h.Body, "body", nil, "statement of the handler body")
	_ = eventCmd.MarkFlagRequired("name")
	return eventCmd
}

func parseParams(in []string) ([]model.Parameter, error) {
	out := make([]model.Parameter, 0, len(in))
	for _, p := range in {
		name, typ, ok := strings.Cut(p, ":")
		if !ok || name == "" || typ == "" {
			return nil, fmt.Errorf("invalid parameter %q, want name:type", p)
		}
		out = append(out, model.Parameter{Name: name, Type: typ})
	}
	return out, nil
}

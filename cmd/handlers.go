package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmmoran/designersync/pkg/action/handlers"
)

func init() {
	rootCmd.AddCommand(NewHandlersCommand())
}

func NewHandlersCommand() *cobra.Command {
	var (
		handlerType string
		params      []string
	)

	// handlersCmd represents the designersync handlers command
	var handlersCmd = &cobra.Command{
		Use:   "handlers",
		Short: "list methods that can handle an event",
		Long:  "List the methods of the designed type compatible with an event handler type or parameter list",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions(c)
			if err != nil {
				return err
			}
			var names []string
			switch {
			case handlerType != "" && len(params) > 0:
				return errors.New("--type and --params are mutually exclusive")
			case handlerType != "":
				names, err = handlers.List(fs, opts, handlerType)
			default:
				names, err = handlers.Compatible(fs, opts, params)
			}
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(c.OutOrStdout(), n)
			}
			return nil
		},
	}
	addOptionFlags(handlersCmd)
	handlersCmd.Flags().StringVarP(&handlerType, "type", "t", "", "event handler type, ex: example.com/widgets.ClickEventHandler")
	handlersCmd.Flags().StringSliceVarP(&params, "params", "p", []string{}, "fully qualified parameter types, in order")
	return handlersCmd
}

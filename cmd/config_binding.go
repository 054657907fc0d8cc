package cmd

import "github.com/spf13/cobra"

var configBindingCmd = &cobra.Command{
	Use:   "binding",
	Short: "Manage sheet bindings in config.",
	Long: `Manage bindings stored under config key bindings.

A binding maps the columns of one worksheet to typed fields; file_template picks the
binding for input files when --binding is not given.`,
}

func init() {
	configCmd.AddCommand(configBindingCmd)
}

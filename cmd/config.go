package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sheetmap configuration file values.",
	Long: `Create, edit, display, and delete the sheetmap configuration file.

The configuration stores decode defaults and the bindings that map sheets to fields:
- log.level / log.format
- decode.first_data_row / ignore_blank_rows / use_first_row_headers
- decrypt.work_dir / delete_after_use
- bindings[].name / sheet / file_template / columns[].key+field+type+nullable`,
	Example: `
  # Create default config in $HOME/.sheetmap.yaml
  sheetmap config create

  # Show active config and source file
  sheetmap config show

  # Open active config in editor (creates example if missing)
  sheetmap config edit

  # Delete active config file
  sheetmap config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

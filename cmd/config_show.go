package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sheetmap/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values.`,
	Example: `
  # Show active configuration
  sheetmap config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
			fmt.Println("Configuration:")
			fmt.Printf("log.level: %s\n", cfg.Log.Level)
			fmt.Printf("log.format: %s\n", cfg.Log.Format)
			fmt.Printf("decode.first_data_row: %d\n", cfg.Decode.FirstDataRow)
			fmt.Printf("decode.ignore_blank_rows: %t\n", cfg.Decode.IgnoreBlankRows)
			fmt.Printf("decode.use_first_row_headers: %t\n", cfg.Decode.UseFirstRowHeaders)
			workDir := cfg.Decrypt.WorkDir
			if workDir == "" {
				workDir = "(user cache directory)"
			}
			fmt.Printf("decrypt.work_dir: %s\n", workDir)
			fmt.Printf("decrypt.delete_after_use: %t\n", cfg.Decrypt.DeleteAfterUse)
			fmt.Printf("bindings: %d\n", len(cfg.Bindings))
			for i, binding := range cfg.Bindings {
				fmt.Printf("bindings[%d].name: %s\n", i, binding.Name)
				fmt.Printf("bindings[%d].sheet: %s\n", i, binding.Sheet)
				fmt.Printf("bindings[%d].file_template: %s\n", i, binding.FileTemplate)
				for j, column := range binding.Columns {
					nullable := ""
					if column.Nullable {
						nullable = ", nullable"
					}
					fmt.Printf("bindings[%d].columns[%d]: %s -> %s (%s%s)\n", i, j, column.Key, column.Field, column.Type, nullable)
				}
			}
		}
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

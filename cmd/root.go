/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sheetmap/config"
	"sheetmap/internal/logging"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sheetmap",
	Short: "Decode typed records from Excel worksheets.",
	Long: `
**********************************************
*                SHEETMAP                    *
**********************************************

This CLI streams worksheets out of Excel workbooks, maps each row onto a configured
binding of typed fields, and writes the records to CSV, Excel or a local SQLite database.

Password protected workbooks are decrypted to a work directory first.
Legacy .xls workbooks are converted to .xlsx before decoding.

Supported input formats:
- Excel: .xlsx, .xlsm, .xls
`,
	Example: `
  # Create configuration file
  sheetmap config create

  # List worksheets of a workbook
  sheetmap sheets -i ./trades-2026.xlsx

  # Decode a workbook with a configured binding and write CSV
  sheetmap decode -i ./trades-2026.xlsx --binding trades --output ./trades.csv

  # Import decoded rows into SQLite
  sheetmap import -i ./trades-2026.xlsx -i ./trades-2027.xlsx --db ./sheetmap.db

  # Export stored rows per source file
  sheetmap export --mode summary --output ./summary.xlsx
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := viper.GetString(config.KeyLogLevel)
		if strings.TrimSpace(logLevel) != "" {
			level = logLevel
		}
		if err := logging.Configure(os.Stderr, level, viper.GetString(config.KeyLogFormat)); err != nil {
			return err
		}
		if !requiresConfig(cmd) {
			return nil
		}

		_, err := config.LoadAndValidate()
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.sheetmap.yaml, then ./.sheetmap.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: trace|debug|info|warn|error")
}

func requiresConfig(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	switch cmd.Name() {
	case "decode", "import":
		return true
	default:
		return false
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".sheetmap" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sheetmap")
	}

	// ./.env fills SHEETMAP_* variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Ignoring .env file:", err)
	}
	viper.SetEnvPrefix("SHEETMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: sheetmap config create")
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sheetmap/config"
	"sheetmap/record"
	"sheetmap/storage"
)

var (
	importOpts   decodeFlags
	importDBPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Decode workbooks and store the rows in a local SQLite database",
	Long: `Decode each input workbook through its binding and persist the rows in SQLite.

The binding is taken from --binding or from the first binding whose file_template matches
the input file name. Rows are keyed by binding, source file and row number, so importing
the same file twice stores nothing new.`,
	Example: `
  # Import workbooks matched by file_template
  sheetmap import -i ./trades-2026.xlsx -i ./trades-2027.xlsx --db ./sheetmap.db

  # Import a protected workbook with an explicit binding
  sheetmap import -i ./locked.xlsx -b trades --password secret --db ./sheetmap.db

  # Import with custom config file
  sheetmap --configFile ./custom-sheetmap.yaml import -i ./positions.xlsx --headers
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		result, err := record.Run(importOpts.inputs, *cfg, importOpts.runOptions(cmd, cfg.Decode))
		if err != nil {
			return err
		}

		store, err := storage.OpenSQLite(importDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		inserted, err := store.InsertRecords(result.Rows)
		if err != nil {
			return err
		}

		fmt.Printf("Import completed. Run: %s, Files: %d, Rows decoded: %d, Rows persisted: %d\n",
			result.RunID,
			result.FilesProcessed,
			result.RowsDecoded,
			inserted,
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importOpts.register(importCmd)
	importCmd.Flags().StringVar(&importDBPath, "db", "./sheetmap.db", "Path to local SQLite database")
}

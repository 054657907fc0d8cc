package cmd

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sheetmap/config"
	"sheetmap/output"
	"sheetmap/record"
	"sheetmap/storage"
)

var (
	exportFormat   string
	exportEncoding string
	exportMode     string
	exportOutput   string
	exportBinding  string
	exportDBPath   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored rows from SQLite to CSV/Excel",
	Long: `Export decoded rows from SQLite.

Modes:
- raw: export each stored row with one column per bound field
- summary: export per source file aggregates (row count, first and last row)

Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export raw rows of one binding to CSV
  sheetmap export --mode raw --binding trades --db ./sheetmap.db --output ./trades.csv

  # Export all rows to Excel
  sheetmap export --db ./sheetmap.db --output ./rows.xlsx

  # Export a per file summary
  sheetmap export --mode summary --db ./sheetmap.db --output ./summary.csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := resolveOutputFormat(exportFormat, exportOutput)

		store, err := storage.OpenSQLite(exportDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		rows, err := store.ListRecords(exportBinding)
		if err != nil {
			return err
		}

		mode := strings.TrimSpace(strings.ToLower(exportMode))
		switch mode {
		case "", "raw":
			writer, writerErr := output.WriterForFormat(format, exportEncoding)
			if writerErr != nil {
				return writerErr
			}
			if err := writer.Write(exportOutput, record.FieldsForRows(configuredBindings(), rows), rows); err != nil {
				return err
			}
			fmt.Printf("Export completed. Rows: %d, Mode: raw, Format: %s, File: %s\n", len(rows), format, exportOutput)
		case "summary":
			summaries := output.BuildSourceSummaries(rows)
			if err := output.WriteSourceSummaries(exportOutput, format, summaries); err != nil {
				return err
			}
			fmt.Printf("Export completed. Files: %d, Mode: summary, Format: %s, File: %s\n", len(summaries), format, exportOutput)
		default:
			return fmt.Errorf("unsupported export mode: %s (supported: raw, summary)", exportMode)
		}
		return nil
	},
}

// configuredBindings returns the bindings of a valid config, or none. Stored
// rows still export without them, with their fields sorted by name.
func configuredBindings() []config.Binding {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.WithError(err).Debug("export without configured bindings")
		return nil
	}
	return cfg.Bindings
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportMode, "mode", "raw", "Export mode: raw|summary")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVar(&exportEncoding, "encoding", output.EncodingUTF8, "CSV encoding: utf-8|utf-16le|windows-1252")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVarP(&exportBinding, "binding", "b", "", "Only export rows of this binding")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "./sheetmap.db", "Path to local SQLite database")

	_ = exportCmd.MarkFlagRequired("output")
}

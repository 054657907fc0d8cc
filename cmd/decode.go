package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sheetmap/config"
	"sheetmap/importer"
	"sheetmap/output"
	"sheetmap/record"
)

// decodeFlags are shared by decode and import.
type decodeFlags struct {
	inputs        []string
	binding       string
	password      string
	keepDecrypted bool
	firstRow      int
	ignoreBlank   bool
	headers       bool
}

func (f *decodeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.inputs, "input", "i", nil, "Input workbook path (repeatable)")
	cmd.Flags().StringVarP(&f.binding, "binding", "b", "", "Binding name (optional, matched by file_template when omitted)")
	cmd.Flags().StringVar(&f.password, "password", "", "Password of protected workbooks")
	cmd.Flags().BoolVar(&f.keepDecrypted, "keep-decrypted", false, "Keep decrypted copies in the work directory")
	cmd.Flags().IntVar(&f.firstRow, "first-row", 0, "First data row, 1-based (overrides decode.first_data_row)")
	cmd.Flags().BoolVar(&f.ignoreBlank, "ignore-blank", false, "Drop rows whose bound fields are all empty (overrides decode.ignore_blank_rows)")
	cmd.Flags().BoolVar(&f.headers, "headers", false, "Bind columns by first-row header text (overrides decode.use_first_row_headers)")

	_ = cmd.MarkFlagRequired("input")
}

// runOptions merges changed flags over the decode section of cfg.
func (f *decodeFlags) runOptions(cmd *cobra.Command, cfg config.DecodeConfig) record.RunOptions {
	return record.RunOptions{
		Binding:       f.binding,
		Password:      f.password,
		KeepDecrypted: f.keepDecrypted,
		Decode:        f.decodeOptions(cfg, cmd.Flags().Changed),
	}
}

func (f *decodeFlags) decodeOptions(cfg config.DecodeConfig, changed func(name string) bool) importer.Options {
	options := cfg.Options()
	if changed("first-row") {
		options.FirstDataRow = f.firstRow
	}
	if changed("ignore-blank") {
		options.IgnoreBlankRows = f.ignoreBlank
	}
	if changed("headers") {
		options.UseFirstRowHeaders = f.headers
	}
	return options
}

var (
	decodeOpts     decodeFlags
	decodeOutput   string
	decodeFormat   string
	decodeEncoding string
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode workbook sheets through a binding and print or write the rows",
	Long: `Open each input workbook, decode the sheet of the selected binding and write the typed rows.

Without --output the rows are printed as a table.
With --output the rows are written to CSV or Excel; the format is inferred from the
output extension unless --format is set.

Protected workbooks need --password. Legacy .xls workbooks are converted to .xlsx first.`,
	Example: `
  # Print rows of a workbook matched by file_template
  sheetmap decode -i ./trades-2026.xlsx

  # Decode a protected workbook with headers into UTF-16 CSV
  sheetmap decode -i ./locked.xlsx -b trades --password secret --headers --output ./trades.csv --encoding utf-16le

  # Start at row 5 and drop blank rows
  sheetmap decode -i ./trades.xls -b trades --first-row 5 --ignore-blank --output ./trades.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		result, err := record.Run(decodeOpts.inputs, *cfg, decodeOpts.runOptions(cmd, cfg.Decode))
		if err != nil {
			return err
		}
		fields := record.FieldsForRows(cfg.Bindings, result.Rows)

		if strings.TrimSpace(decodeOutput) == "" {
			return printRows(os.Stdout, fields, result.Rows)
		}

		format := resolveOutputFormat(decodeFormat, decodeOutput)
		writer, err := output.WriterForFormat(format, decodeEncoding)
		if err != nil {
			return err
		}
		if err := writer.Write(decodeOutput, fields, result.Rows); err != nil {
			return err
		}

		fmt.Printf("Decode completed. Files: %d, Rows: %d, Format: %s, File: %s\n",
			result.FilesProcessed,
			result.RowsDecoded,
			format,
			decodeOutput,
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeOpts.register(decodeCmd)
	decodeCmd.Flags().StringVarP(&decodeOutput, "output", "o", "", "Output file path (optional, prints a table when omitted)")
	decodeCmd.Flags().StringVarP(&decodeFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	decodeCmd.Flags().StringVar(&decodeEncoding, "encoding", output.EncodingUTF8, "CSV encoding: utf-8|utf-16le|windows-1252")
}

// resolveOutputFormat prefers an explicit format, then the output extension,
// then csv.
func resolveOutputFormat(format, path string) string {
	if strings.TrimSpace(format) != "" {
		return format
	}
	if inferred := output.FormatForPath(path); inferred != "" {
		return inferred
	}
	return "csv"
}

func printRows(w io.Writer, fields []string, rows []record.Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ROW\t%s\n", strings.ToUpper(strings.Join(fields, "\t")))
	for _, row := range rows {
		values := make([]string, 0, len(fields))
		for _, field := range fields {
			values = append(values, record.FormatValue(row.Values[field]))
		}
		fmt.Fprintf(tw, "%d\t%s\n", row.Number, strings.Join(values, "\t"))
	}
	return tw.Flush()
}

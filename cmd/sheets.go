package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sheetmap/config"
	"sheetmap/importer"
)

var (
	sheetsInput    string
	sheetsPassword string
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "List the worksheets of a workbook",
	Long: `Open a workbook and print its worksheet names in workbook order.

Protected and legacy workbooks are decrypted or converted first; the temporary copy is
removed afterwards.`,
	Example: `
  # List worksheets
  sheetmap sheets -i ./trades-2026.xlsx

  # List worksheets of a protected workbook
  sheetmap sheets -i ./locked.xlsx --password secret
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		im := importer.New(importer.WithWorkDir(viper.GetString(config.KeyDecryptWorkDir)))
		defer im.Close()

		if _, err := im.Open(sheetsInput, sheetsPassword, true); err != nil {
			return err
		}

		names, err := im.Sheets()
		if err != nil {
			return err
		}
		for i, name := range names {
			fmt.Printf("%d\t%s\n", i+1, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sheetsCmd)

	sheetsCmd.Flags().StringVarP(&sheetsInput, "input", "i", "", "Input workbook path")
	sheetsCmd.Flags().StringVar(&sheetsPassword, "password", "", "Password of a protected workbook")

	_ = sheetsCmd.MarkFlagRequired("input")
}

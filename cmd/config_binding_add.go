package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"sheetmap/config"
	"sheetmap/importer"
)

var (
	configBindingAddInput    string
	configBindingAddPassword string
	configBindingAddSheet    string
	configBindingAddName     string
	configBindingAddTemplate string
)

// headerCell is one populated cell of a sheet's first row.
type headerCell struct {
	Letter string
	Text   string
}

var columnTypeOptions = []string{"skip", "string", "int", "float", "decimal", "date", "bool"}

var configBindingAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Interactively add one binding from a workbook's header row.",
	Long: `Open a sample workbook, read the first row of the chosen sheet and ask for the type of
each populated column. The columns are bound by letter; field names are derived from the
header text. The new bindings entry is validated and stored in config.`,
	Example: `
  # Add a binding from a sample workbook
  sheetmap config binding add -i ./trades-2026.xlsx --sheet Trades --name trades --template "trades*.xlsx"

  # Choose the sheet interactively from a protected workbook
  sheetmap config binding add -i ./locked.xlsx --password secret
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		if _, err := ensureConfigFileWithTemplate(configPath); err != nil {
			return err
		}

		im := importer.New(importer.WithWorkDir(viper.GetString(config.KeyDecryptWorkDir)))
		defer im.Close()
		if _, err := im.Open(configBindingAddInput, configBindingAddPassword, true); err != nil {
			return err
		}

		reader := bufio.NewReader(os.Stdin)
		sheet := strings.TrimSpace(configBindingAddSheet)
		if sheet == "" {
			names, err := im.Sheets()
			if err != nil {
				return err
			}
			idx, err := promptSelectIndex(reader, os.Stdout, "Select sheet:", names)
			if err != nil {
				return err
			}
			sheet = names[idx]
		}

		headers, err := readHeaderRow(im.String(), sheet)
		if err != nil {
			return err
		}

		name := strings.TrimSpace(configBindingAddName)
		if name == "" {
			if name, err = promptRequiredString(reader, os.Stdout, "Binding name"); err != nil {
				return err
			}
		}

		columns, err := promptBindingColumns(reader, os.Stdout, headers)
		if err != nil {
			return err
		}

		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("read config %q: %w", configPath, err)
		}
		updated, err := appendBindingToConfigYAML(content, config.Binding{
			Name:         name,
			Sheet:        sheet,
			FileTemplate: strings.TrimSpace(configBindingAddTemplate),
			Columns:      columns,
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(configPath, updated, 0o600); err != nil {
			return fmt.Errorf("write config %q: %w", configPath, err)
		}

		fmt.Printf("Binding %q with %d columns added to: %s\n", name, len(columns), configPath)
		return nil
	},
}

// readHeaderRow returns the populated cells of the first row of sheet.
func readHeaderRow(path, sheet string) ([]headerCell, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Error(); err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}
	values, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read header row of %q: %w", sheet, err)
	}

	headers := make([]headerCell, 0, len(values))
	for i, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		letter, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		headers = append(headers, headerCell{Letter: letter, Text: strings.TrimSpace(value)})
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}
	return headers, nil
}

func promptBindingColumns(reader *bufio.Reader, out io.Writer, headers []headerCell) ([]config.Column, error) {
	columns := make([]config.Column, 0, len(headers))
	used := make(map[string]int, len(headers))
	for _, header := range headers {
		idx, err := promptSelectIndex(reader, out, fmt.Sprintf("Column %s %q type:", header.Letter, header.Text), columnTypeOptions)
		if err != nil {
			return nil, err
		}
		if columnTypeOptions[idx] == "skip" {
			continue
		}

		nullable := false
		if columnTypeOptions[idx] != "string" {
			if nullable, err = promptYesNo(reader, out, "Nullable"); err != nil {
				return nil, err
			}
		}

		field := fieldNameFromHeader(header.Text, header.Letter)
		used[field]++
		if n := used[field]; n > 1 {
			field += "_" + strconv.Itoa(n)
		}

		columns = append(columns, config.Column{
			Key:      header.Letter,
			Field:    field,
			Type:     columnTypeOptions[idx],
			Nullable: nullable,
		})
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns selected")
	}
	return columns, nil
}

// fieldNameFromHeader lowercases text and joins its words with underscores.
func fieldNameFromHeader(text, letter string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			pendingSep = false
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return strings.ToLower(letter)
	}
	return b.String()
}

func promptYesNo(reader *bufio.Reader, out io.Writer, label string) (bool, error) {
	for {
		fmt.Fprintf(out, "%s? [y/N]: ", strings.TrimSpace(label))
		input, err := reader.ReadString('\n')
		if err != nil {
			return false, fmt.Errorf("read %s: %w", strings.ToLower(strings.TrimSpace(label)), err)
		}
		switch strings.ToLower(strings.TrimSpace(input)) {
		case "", "n", "no":
			return false, nil
		case "y", "yes":
			return true, nil
		default:
			fmt.Fprintln(out, "Please answer y or n.")
		}
	}
}

func promptSelectIndex(reader *bufio.Reader, out io.Writer, title string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, fmt.Errorf("no options available for %q", title)
	}

	for {
		fmt.Fprintln(out, title)
		for i, option := range options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, option)
		}
		fmt.Fprintf(out, "Choose [1-%d]: ", len(options))

		input, err := reader.ReadString('\n')
		if err != nil {
			return -1, fmt.Errorf("read selection input: %w", err)
		}
		input = strings.TrimSpace(input)
		choice, err := strconv.Atoi(input)
		if err != nil || choice < 1 || choice > len(options) {
			fmt.Fprintln(out, "Invalid selection. Please enter a valid number.")
			continue
		}
		return choice - 1, nil
	}
}

func promptRequiredString(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	for {
		fmt.Fprintf(out, "%s: ", strings.TrimSpace(label))
		input, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.TrimSpace(strings.ToLower(label)), err)
		}
		value := strings.TrimSpace(input)
		if value == "" {
			fmt.Fprintln(out, "Value must not be empty.")
			continue
		}
		return value, nil
	}
}

func appendBindingToConfigYAML(content []byte, binding config.Binding) ([]byte, error) {
	if strings.TrimSpace(binding.Name) == "" {
		return nil, fmt.Errorf("binding name is required")
	}
	if strings.TrimSpace(binding.Sheet) == "" {
		return nil, fmt.Errorf("sheet is required")
	}
	if len(binding.Columns) == 0 {
		return nil, fmt.Errorf("at least one column is required")
	}

	doc := map[string]any{}
	if strings.TrimSpace(string(content)) != "" {
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	bindingList, err := ensureSliceAny(doc, config.KeyBindings)
	if err != nil {
		return nil, err
	}

	for _, existing := range bindingList {
		bindingMap, ok := existing.(map[string]any)
		if !ok {
			continue
		}
		existingName, _ := bindingMap["name"].(string)
		if strings.EqualFold(strings.TrimSpace(existingName), strings.TrimSpace(binding.Name)) {
			return nil, fmt.Errorf("binding with name %q already exists", binding.Name)
		}
	}

	columns := make([]any, 0, len(binding.Columns))
	for _, column := range binding.Columns {
		entry := map[string]any{
			"key":   column.Key,
			"field": column.Field,
			"type":  column.Type,
		}
		if column.Nullable {
			entry["nullable"] = true
		}
		columns = append(columns, entry)
	}

	entry := map[string]any{
		"name":    binding.Name,
		"sheet":   binding.Sheet,
		"columns": columns,
	}
	if binding.FileTemplate != "" {
		entry["file_template"] = binding.FileTemplate
	}
	doc[config.KeyBindings] = append(bindingList, entry)

	updated, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal updated config yaml: %w", err)
	}
	if _, err := config.ValidateYAMLContent(updated); err != nil {
		return nil, fmt.Errorf("updated config is invalid: %w", err)
	}
	return updated, nil
}

func ensureSliceAny(doc map[string]any, key string) ([]any, error) {
	raw, exists := doc[key]
	if !exists || raw == nil {
		result := []any{}
		doc[key] = result
		return result, nil
	}
	result, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("config key %q must be a list", key)
	}
	return result, nil
}

func init() {
	configBindingCmd.AddCommand(configBindingAddCmd)

	configBindingAddCmd.Flags().StringVarP(&configBindingAddInput, "input", "i", "", "Sample workbook path")
	configBindingAddCmd.Flags().StringVar(&configBindingAddPassword, "password", "", "Password of a protected sample workbook")
	configBindingAddCmd.Flags().StringVar(&configBindingAddSheet, "sheet", "", "Worksheet name (prompted when omitted)")
	configBindingAddCmd.Flags().StringVar(&configBindingAddName, "name", "", "Binding name (prompted when omitted)")
	configBindingAddCmd.Flags().StringVar(&configBindingAddTemplate, "template", "", "Optional file_template glob")

	_ = configBindingAddCmd.MarkFlagRequired("input")
}

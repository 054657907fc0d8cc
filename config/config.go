package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"sheetmap/importer"
)

const (
	KeyLogLevel                 = "log.level"
	KeyLogFormat                = "log.format"
	KeyDecodeFirstDataRow       = "decode.first_data_row"
	KeyDecodeIgnoreBlankRows    = "decode.ignore_blank_rows"
	KeyDecodeUseFirstRowHeaders = "decode.use_first_row_headers"
	KeyDecryptWorkDir           = "decrypt.work_dir"
	KeyDecryptDeleteAfterUse    = "decrypt.delete_after_use"
	KeyBindings                 = "bindings"
)

type Config struct {
	Log      LogConfig     `mapstructure:"log"`
	Decode   DecodeConfig  `mapstructure:"decode"`
	Decrypt  DecryptConfig `mapstructure:"decrypt"`
	Bindings []Binding     `mapstructure:"bindings" validate:"dive"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type DecodeConfig struct {
	FirstDataRow       int  `mapstructure:"first_data_row" validate:"min=1"`
	IgnoreBlankRows    bool `mapstructure:"ignore_blank_rows"`
	UseFirstRowHeaders bool `mapstructure:"use_first_row_headers"`
}

type DecryptConfig struct {
	// WorkDir holds decrypted copies; empty means the user cache directory.
	WorkDir        string `mapstructure:"work_dir"`
	DeleteAfterUse bool   `mapstructure:"delete_after_use"`
}

// Binding maps one sheet to named fields. FileTemplate is an optional glob
// used to pick the binding for a file when none is named.
type Binding struct {
	Name         string   `mapstructure:"name" validate:"required"`
	Sheet        string   `mapstructure:"sheet" validate:"required"`
	FileTemplate string   `mapstructure:"file_template"`
	Columns      []Column `mapstructure:"columns" validate:"required,min=1,dive"`
}

type Column struct {
	Key      string `mapstructure:"key" validate:"required"`
	Field    string `mapstructure:"field" validate:"required"`
	Type     string `mapstructure:"type" validate:"required"`
	Nullable bool   `mapstructure:"nullable"`
}

// Options converts the decode section into importer options.
func (d DecodeConfig) Options() importer.Options {
	return importer.Options{
		FirstDataRow:       d.FirstDataRow,
		IgnoreBlankRows:    d.IgnoreBlankRows,
		UseFirstRowHeaders: d.UseFirstRowHeaders,
	}
}

// BindingByName finds a binding, ignoring case.
func (c Config) BindingByName(name string) (Binding, bool) {
	for _, binding := range c.Bindings {
		if strings.EqualFold(strings.TrimSpace(binding.Name), strings.TrimSpace(name)) {
			return binding, true
		}
	}
	return Binding{}, false
}

// MatchBindingByTemplate returns the first binding whose file template matches
// the base name or the full path.
func MatchBindingByTemplate(path string, bindings []Binding) (Binding, bool) {
	baseName := filepath.Base(path)
	for _, binding := range bindings {
		template := strings.TrimSpace(binding.FileTemplate)
		if template == "" {
			continue
		}
		matchesBase, err := filepath.Match(template, baseName)
		if err == nil && matchesBase {
			return binding, true
		}
		matchesFull, err := filepath.Match(template, path)
		if err == nil && matchesFull {
			return binding, true
		}
	}
	return Binding{}, false
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# sheetmap configuration
log:
  level: "info"
  format: "text"

decode:
  first_data_row: 2
  ignore_blank_rows: false
  use_first_row_headers: false

decrypt:
  # empty uses the user cache directory
  work_dir: ""
  delete_after_use: true

bindings:
  - name: "trades"
    sheet: "Trades"
    file_template: "trades*.xlsx"
    columns:
      - { key: "A", field: "id", type: "string" }
      - { key: "B", field: "quantity", type: "int" }
      - { key: "C", field: "price", type: "decimal" }
      - { key: "D", field: "trade_date", type: "date" }
      - { key: "E", field: "settled", type: "date", nullable: true }
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateBindings(cfg.Bindings); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyDecodeFirstDataRow, 2)
	v.SetDefault(KeyDecodeIgnoreBlankRows, false)
	v.SetDefault(KeyDecodeUseFirstRowHeaders, false)
	v.SetDefault(KeyDecryptWorkDir, "")
	v.SetDefault(KeyDecryptDeleteAfterUse, true)
	v.SetDefault(KeyBindings, []map[string]any{})
}

func validateBindings(bindings []Binding) error {
	seen := make(map[string]struct{}, len(bindings))
	for i, binding := range bindings {
		key := strings.ToLower(strings.TrimSpace(binding.Name))
		if _, exists := seen[key]; exists {
			return fmt.Errorf("validation failed: duplicate binding name %q", binding.Name)
		}
		seen[key] = struct{}{}

		if template := strings.TrimSpace(binding.FileTemplate); template != "" {
			if _, err := filepath.Match(template, "sample.xlsx"); err != nil {
				return fmt.Errorf("validation failed: bindings[%d].file_template %q: %w", i, template, err)
			}
		}

		fields := make(map[string]struct{}, len(binding.Columns))
		for j, column := range binding.Columns {
			if _, err := importer.ParseKind(column.Type); err != nil {
				return fmt.Errorf("validation failed: bindings[%d].columns[%d]: %w", i, j, err)
			}
			field := strings.ToLower(strings.TrimSpace(column.Field))
			if _, exists := fields[field]; exists {
				return fmt.Errorf("validation failed: bindings[%d] has duplicate field %q", i, column.Field)
			}
			fields[field] = struct{}{}
		}
	}
	return nil
}

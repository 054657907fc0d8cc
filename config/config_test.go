package config

import (
	"strings"
	"testing"
)

func TestValidateYAMLContent_ExampleIsValid(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(ExampleYAML()))
	if err != nil {
		t.Fatalf("expected example config to validate: %v", err)
	}
	if cfg.Decode.FirstDataRow != 2 || !cfg.Decrypt.DeleteAfterUse {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	binding, ok := cfg.BindingByName("TRADES")
	if !ok {
		t.Fatalf("expected binding trades")
	}
	if binding.Sheet != "Trades" || len(binding.Columns) != 5 || !binding.Columns[4].Nullable {
		t.Fatalf("unexpected binding: %+v", binding)
	}
}

func TestValidateYAMLContent_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte("bindings: []\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts := cfg.Decode.Options()
	if opts.FirstDataRow != 2 || opts.IgnoreBlankRows || opts.UseFirstRowHeaders {
		t.Fatalf("unexpected decode options: %+v", opts)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
}

func TestValidateYAMLContent_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "unsupported column type",
			content: "bindings:\n  - name: a\n    sheet: S\n    columns:\n      - { key: A, field: x, type: currency }\n",
			want:    "unsupported column type",
		},
		{
			name:    "duplicate binding name",
			content: "bindings:\n  - name: a\n    sheet: S\n    columns: [{ key: A, field: x, type: string }]\n  - name: A\n    sheet: T\n    columns: [{ key: A, field: x, type: string }]\n",
			want:    "duplicate binding name",
		},
		{
			name:    "duplicate field",
			content: "bindings:\n  - name: a\n    sheet: S\n    columns:\n      - { key: A, field: x, type: string }\n      - { key: B, field: X, type: int }\n",
			want:    "duplicate field",
		},
		{
			name:    "missing sheet",
			content: "bindings:\n  - name: a\n    columns: [{ key: A, field: x, type: string }]\n",
			want:    "validation failed",
		},
		{
			name:    "no columns",
			content: "bindings:\n  - name: a\n    sheet: S\n",
			want:    "validation failed",
		},
		{
			name:    "first data row zero",
			content: "decode:\n  first_data_row: 0\n",
			want:    "validation failed",
		},
		{
			name:    "unknown log format",
			content: "log:\n  format: xml\n",
			want:    "validation failed",
		},
		{
			name:    "bad file template",
			content: "bindings:\n  - name: a\n    sheet: S\n    file_template: \"[\"\n    columns: [{ key: A, field: x, type: string }]\n",
			want:    "file_template",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ValidateYAMLContent([]byte(tc.content))
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestMatchBindingByTemplate(t *testing.T) {
	t.Parallel()

	bindings := []Binding{
		{Name: "plain"},
		{Name: "trades", FileTemplate: "trades*.xlsx"},
		{Name: "archive", FileTemplate: "/archive/*.xls"},
	}

	tests := []struct {
		path string
		want string
	}{
		{path: "/data/trades-2026.xlsx", want: "trades"},
		{path: "/archive/old.xls", want: "archive"},
		{path: "/data/other.xlsx", want: ""},
	}

	for _, tc := range tests {
		got, ok := MatchBindingByTemplate(tc.path, bindings)
		if tc.want == "" {
			if ok {
				t.Errorf("%s: expected no match, got %s", tc.path, got.Name)
			}
			continue
		}
		if !ok || got.Name != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.path, tc.want, got.Name)
		}
	}
}

package record

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"sheetmap/config"
	"sheetmap/importer"
)

type Result struct {
	RunID          string
	FilesProcessed int
	RowsDecoded    int
	Rows           []Row
}

type RunOptions struct {
	// Binding names the configured binding; empty picks one by file template.
	Binding       string
	Password      string
	KeepDecrypted bool
	Decode        importer.Options
	Decrypter     importer.Decrypter
	Logger        log.FieldLogger
}

// Run decodes every path with its binding and collects the rows.
func Run(paths []string, cfg config.Config, options RunOptions) (*Result, error) {
	if options.Logger == nil {
		options.Logger = log.StandardLogger()
	}

	result := &Result{RunID: uuid.New().String(), Rows: make([]Row, 0, 256)}
	for _, path := range paths {
		binding, err := resolveBinding(path, cfg, options.Binding)
		if err != nil {
			return nil, err
		}

		rows, err := decodeFile(path, binding, cfg, options)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].RunID = result.RunID
		}
		options.Logger.WithFields(log.Fields{
			"run":     result.RunID,
			"file":    path,
			"binding": binding.Name,
			"rows":    len(rows),
		}).Info("file decoded")

		result.FilesProcessed++
		result.RowsDecoded += len(rows)
		result.Rows = append(result.Rows, rows...)
	}
	return result, nil
}

func resolveBinding(path string, cfg config.Config, name string) (config.Binding, error) {
	if strings.TrimSpace(name) != "" {
		binding, ok := cfg.BindingByName(name)
		if !ok {
			return config.Binding{}, fmt.Errorf("binding %q is not configured", name)
		}
		return binding, nil
	}

	binding, ok := config.MatchBindingByTemplate(path, cfg.Bindings)
	if !ok {
		return config.Binding{}, fmt.Errorf("no binding matches file %s; pass --binding or add a file_template in config", path)
	}
	return binding, nil
}

func decodeFile(path string, binding config.Binding, cfg config.Config, options RunOptions) ([]Row, error) {
	b, err := NewBinding(binding)
	if err != nil {
		return nil, err
	}

	opts := []importer.Option{
		importer.WithWorkDir(cfg.Decrypt.WorkDir),
		importer.WithLogger(options.Logger),
	}
	if options.Decrypter != nil {
		opts = append(opts, importer.WithDecrypter(options.Decrypter))
	}

	im := importer.New(opts...)
	defer im.Close()
	im.Options = options.Decode

	deleteAfterUse := cfg.Decrypt.DeleteAfterUse && !options.KeepDecrypted
	if _, err := im.Open(path, options.Password, deleteAfterUse); err != nil {
		return nil, err
	}

	rows, err := importer.Decode(im, b)
	if err != nil {
		return nil, fmt.Errorf("decode %s with binding %s: %w", filepath.Base(path), binding.Name, err)
	}

	for i := range rows {
		rows[i].Binding = binding.Name
		rows[i].Sheet = binding.Sheet
		rows[i].SourceFile = path
	}
	return rows, nil
}

package logging

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Configure applies level and format to the standard logger.
func Configure(out io.Writer, level, format string) error {
	parsed, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var formatter log.Formatter
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		formatter = &log.TextFormatter{DisableTimestamp: true}
	case "json":
		formatter = &log.JSONFormatter{}
	default:
		return fmt.Errorf("invalid log format %q (supported: text|json)", format)
	}

	logger := log.StandardLogger()
	if out != nil {
		logger.SetOutput(out)
	}
	logger.SetLevel(parsed)
	logger.SetFormatter(formatter)
	return nil
}

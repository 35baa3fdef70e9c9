// Package log adapts [github.com/charmbracelet/log] handlers for log/slog.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

const (
	FormatText   = "text"
	FormatLogfmt = "logfmt"
	FormatJSON   = "json"
)

// CreateHandler creates a [slog.Handler] writing to w, using the given level
// and format strings.
func CreateHandler(w io.Writer, logLevel, logFormat string) (slog.Handler, error) {
	level, err := charmlog.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	opts := charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
	}

	switch strings.ToLower(logFormat) {
	case FormatText, "":
		opts.Formatter = charmlog.TextFormatter
	case FormatLogfmt:
		opts.Formatter = charmlog.LogfmtFormatter
	case FormatJSON:
		opts.Formatter = charmlog.JSONFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", logFormat)
	}

	return charmlog.NewWithOptions(w, opts), nil
}

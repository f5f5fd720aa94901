// Package log builds [slog.Handler] values from level and format strings.
package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

const (
	JSONFormat   = "json"
	LogfmtFormat = "logfmt"
	TextFormat   = "text"
)

var (
	// ErrUnknownFormat is returned for a format other than text, logfmt or json.
	ErrUnknownFormat = errors.New("unknown log format")
	// ErrUnknownLevel is returned for a level charmbracelet/log cannot parse.
	ErrUnknownLevel = errors.New("unknown log level")
)

// CreateHandler creates a [slog.Handler] writing to w by strings. An empty
// level means warn and an empty format means text.
func CreateHandler(w io.Writer, logLevel, logFormat string) (slog.Handler, error) {
	level, err := GetLevel(logLevel)
	if err != nil {
		return nil, err
	}

	opts := charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
	}

	switch strings.ToLower(logFormat) {
	case JSONFormat:
		opts.Formatter = charmlog.JSONFormatter
	case LogfmtFormat:
		opts.Formatter = charmlog.LogfmtFormatter
	case TextFormat, "":
		opts.Formatter = charmlog.TextFormatter
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, logFormat)
	}

	return charmlog.NewWithOptions(w, opts), nil
}

// GetLevel parses a level name. "warning" and "trace" are accepted as
// aliases of warn and debug.
func GetLevel(level string) (charmlog.Level, error) {
	switch strings.ToLower(level) {
	case "":
		return charmlog.WarnLevel, nil
	case "warning":
		return charmlog.WarnLevel, nil
	case "trace":
		return charmlog.DebugLevel, nil
	}

	l, err := charmlog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	return l, nil
}

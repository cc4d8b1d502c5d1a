package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// jsonTimeLayout keeps millisecond precision in run logs.
const jsonTimeLayout = "2006-01-02T15:04:05.000Z07:00"

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) (slog.Handler, error) {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: shortJSONKeys,
	}), nil
}

// shortJSONKeys renames the built-in keys to ts, level and msg and flattens
// the source location to file:line.
func shortJSONKeys(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(jsonTimeLayout))
		}
	case slog.LevelKey:
		attr.Key = "level"
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "msg"
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return attr
}

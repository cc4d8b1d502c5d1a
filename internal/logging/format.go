package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Console timestamps carry milliseconds so stage timings line up with ffmpeg
// progress output.
const logTimestampLayout = "2006-01-02 15:04:05.000"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(logTimestampLayout)
}

// attrString returns the raw text of a value, used for the component and
// subject columns of the console header.
func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		return anyString(v.Any())
	default:
		return formatValue(v)
	}
}

// formatValue renders a value for the console field list, quoting text that
// would otherwise be ambiguous.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		return quoteIfNeeded(anyString(v.Any()))
	default:
		return quoteIfNeeded(v.String())
	}
}

func anyString(value any) string {
	if err, ok := value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(value)
}

func quoteIfNeeded(s string) string {
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

// needsQuotes reports whether s is empty or holds spaces, control characters,
// '=' or '"'. Caption text in other scripts is left readable.
func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' || r == 0x7f {
			return true
		}
	}
	return false
}

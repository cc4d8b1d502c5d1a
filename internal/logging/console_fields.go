package logging

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 8

var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	"error",
	FieldErrorKind,
	FieldErrorHint,
	FieldImpact,
	"output",
	"log_path",
	"stage_duration",
	"total_duration",
	"track_count",
	"visual_count",
	"narration_start",
	"narration_duration",
	"media_duration",
	"media_resolution",
	"background_repeats",
	"required_duration",
	"reason",
}

// selectInfoFields returns formatted info-level fields and a count of hidden
// entries. Highlight keys come first in a fixed order; limit=0 means no limit.
func selectInfoFields(attrs []kv, limit int) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, infoAttrLimit)
	hidden := 0

	add := func(idx int) {
		used[idx] = true
		attr := attrs[idx]
		if skipInfoKey(attr.key) {
			return
		}
		if isDebugOnlyKey(attr.key) || (limit > 0 && len(result) >= limit) {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: formatValueForKey(attr.key, attr.value)})
	}

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				add(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			add(idx)
		}
	}
	return result, hidden
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	case v.Kind() == slog.KindDuration:
		return formatDurationHuman(v.Duration())
	case v.Kind() == slog.KindFloat64 && isSecondsKey(key):
		return strconv.FormatFloat(v.Float64(), 'f', 2, 64) + "s"
	case key == "error":
		value := formatValue(v)
		const maxLen = 200
		if len(value) > maxLen {
			value = value[:maxLen] + "…"
		}
		return value
	default:
		return formatValue(v)
	}
}

func formatDurationHuman(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

func isSecondsKey(key string) bool {
	return strings.HasSuffix(key, "_duration") || strings.HasSuffix(key, "_start") || strings.HasSuffix(key, "_end")
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldStage, FieldSegment, FieldComponent:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case FieldRunID, "command", "args", "media_has_audio", "media_frame_rate":
		return true
	}
	return strings.HasSuffix(key, "_path") && key != "log_path"
}

func displayLabel(key string) string {
	switch key {
	case FieldAlert:
		return "Alert"
	case FieldEventType:
		return "Event"
	case FieldErrorKind:
		return "Kind"
	case FieldErrorHint:
		return "Hint"
	case "stage_duration":
		return "Elapsed"
	case "media_duration":
		return "Duration"
	case "media_resolution":
		return "Resolution"
	case "narration_start":
		return "Start"
	case "narration_duration":
		return "Duration"
	case "background_repeats":
		return "Repeats"
	case "log_path":
		return "Log"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/liyanghua/xhs-video-tool/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	label string
	color text.Color
}{
	statusInfo:  {"INFO", text.FgBlue},
	statusOK:    {"OK", text.FgGreen},
	statusWarn:  {"WARN", text.FgYellow},
	statusError: {"ERROR", text.FgRed},
}

const (
	statusLabelWidth = 24
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	line := fmt.Sprintf("%s%-*s [%s]", statusIndent, statusLabelWidth, label+":", style.label)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return style.color.Sprint(line)
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(heading))
	if colorize {
		return []string{text.Colors{text.Bold, text.FgBlue}.Sprint(heading), text.FgBlue.Sprint(rule)}
	}
	return []string{heading, rule}
}

// checkLines renders preflight results, one per line, followed by a summary.
// Passing checks that carry a caveat such as a skipped background are shown
// as warnings.
func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results)+1)
	for _, r := range results {
		kind := statusOK
		switch {
		case !r.Passed:
			kind = statusError
		case strings.Contains(r.Detail, "narration only"):
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	if failed := len(preflight.Failures(results)); failed > 0 {
		return append(lines, renderStatusLine("Summary", statusError, fmt.Sprintf("%d of %d checks failed", failed, len(results)), colorize))
	}
	return append(lines, renderStatusLine("Summary", statusOK, "ready to render", colorize))
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

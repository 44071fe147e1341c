package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var statusStyles = map[statusKind]struct{ tag, color string }{
	statusInfo:  {tag: "INFO", color: ansiBlue},
	statusOK:    {tag: "OK", color: ansiGreen},
	statusWarn:  {tag: "WARN", color: ansiYellow},
	statusError: {tag: "ERROR", color: ansiRed},
}

const statusLabelWidth = 18

// statusWriter prints sections of graded, label-aligned lines. Colour is
// decided once from the destination.
type statusWriter struct {
	out      io.Writer
	colorize bool
	sections int
}

func newStatusWriter(out io.Writer) *statusWriter {
	return &statusWriter{out: out, colorize: shouldColorize(out)}
}

func (w *statusWriter) section(title string) {
	if w.sections > 0 {
		fmt.Fprintln(w.out)
	}
	w.sections++
	for _, line := range renderSectionHeader(title, w.colorize) {
		fmt.Fprintln(w.out, line)
	}
}

func (w *statusWriter) line(label string, kind statusKind, detail string) {
	fmt.Fprintln(w.out, renderStatusLine(label, kind, detail, w.colorize))
}

// artifact reports one render output: missing paths were not requested,
// files that cannot be stat'ed are errors.
func (w *statusWriter) artifact(label, path string) {
	kind, detail := artifactStatus(path)
	w.line(label, kind, detail)
}

func artifactStatus(path string) (statusKind, string) {
	if path == "" {
		return statusInfo, "not requested"
	}
	info, err := os.Stat(path)
	if err != nil {
		return statusError, path + " (missing)"
	}
	return statusOK, message.NewPrinter(language.English).Sprintf("%s (%d bytes)", path, info.Size())
}

func renderStatusLine(label string, kind statusKind, detail string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "  %-*s [%s]", statusLabelWidth, label+":", style.tag)
	if detail != "" {
		b.WriteString(" ")
		b.WriteString(detail)
	}
	if colorize {
		return style.color + b.String() + ansiReset
	}
	return b.String()
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	lines := []string{heading, strings.Repeat("-", len(heading))}
	if colorize {
		for i := range lines {
			lines[i] = ansiBlue + lines[i] + ansiReset
		}
	}
	return lines
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

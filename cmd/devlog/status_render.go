package main

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

type statusStyle struct {
	label string
	color color.Attribute
}

var statusStyles = map[statusKind]statusStyle{
	statusInfo:  {label: "INFO", color: color.FgBlue},
	statusOK:    {label: "OK", color: color.FgGreen},
	statusWarn:  {label: "WARN", color: color.FgYellow},
	statusError: {label: "ERROR", color: color.FgRed},
}

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

// paint applies attr when colorize is set, regardless of the global
// color.NoColor detection, so output to a pipe stays plain.
func paint(text string, attr color.Attribute, colorize bool) string {
	c := color.New(attr)
	if colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}

// renderStatusLine produces "  Label:<pad> [KIND] message".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	var b strings.Builder
	b.WriteString(statusIndent)
	b.WriteString(runewidth.FillRight(label+":", statusLabelWidth))
	b.WriteString(" [")
	b.WriteString(style.label)
	b.WriteByte(']')
	if message != "" {
		b.WriteByte(' ')
		b.WriteString(message)
	}
	return paint(b.String(), style.color, colorize)
}

func renderInfoLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = statusIndent + line
	}
	return out
}

func renderSectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", runewidth.StringWidth(line))
	return []string{paint(line, color.FgCyan, colorize), paint(rule, color.FgCyan, colorize)}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

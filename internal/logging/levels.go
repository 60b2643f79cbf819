package logging

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// Severity levels. SUCCESS sits between INFO and WARNING, SCREEN between
// WARNING and ERROR.
const (
	LevelDebug    = slog.LevelDebug
	LevelInfo     = slog.LevelInfo
	LevelSuccess  = slog.Level(2)
	LevelWarn     = slog.LevelWarn
	LevelScreen   = slog.Level(6)
	LevelError    = slog.LevelError
	LevelCritical = slog.Level(12)
)

const fallbackEmoji = "🔹"

type levelStyle struct {
	name  string
	emoji string
	color color.Attribute
}

var levelStyles = map[slog.Level]levelStyle{
	LevelDebug:    {name: "DEBUG", emoji: "🐛", color: color.FgBlue},
	LevelInfo:     {name: "INFO", emoji: "🔍", color: color.FgGreen},
	LevelSuccess:  {name: "SUCCESS", emoji: "✅", color: color.FgCyan},
	LevelWarn:     {name: "WARNING", emoji: "🚨", color: color.FgYellow},
	LevelScreen:   {name: "SCREEN", emoji: "📸", color: color.FgMagenta},
	LevelError:    {name: "ERROR", emoji: "❌", color: color.FgRed},
	LevelCritical: {name: "CRITICAL", emoji: "🔥", color: color.FgMagenta},
}

// Levels lists every named severity from least to most severe.
func Levels() []slog.Level {
	return []slog.Level{LevelDebug, LevelInfo, LevelSuccess, LevelWarn, LevelScreen, LevelError, LevelCritical}
}

// consoleLabelWidth and fileLabelWidth are the widest emoji+label and label
// cells, measured in terminal columns.
var (
	consoleLabelWidth = widestLabel(func(l slog.Level) string { return consoleLabelCell(l) })
	fileLabelWidth    = widestLabel(func(l slog.Level) string { return bracketLabel(l) })
)

func widestLabel(cell func(slog.Level) string) int {
	widest := 0
	for _, level := range Levels() {
		if w := runewidth.StringWidth(cell(level)); w > widest {
			widest = w
		}
	}
	return widest
}

func levelName(level slog.Level) string {
	if style, ok := levelStyles[level]; ok {
		return style.name
	}
	return level.String()
}

func levelEmoji(level slog.Level) string {
	if style, ok := levelStyles[level]; ok {
		return style.emoji
	}
	return fallbackEmoji
}

func bracketLabel(level slog.Level) string {
	return "[" + levelName(level) + "]"
}

func consoleLabelCell(level slog.Level) string {
	return levelEmoji(level) + " " + bracketLabel(level)
}

// ParseLevel accepts level names case-insensitively. "warn" and "warning"
// are equivalent.
func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "success":
		return LevelSuccess, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "screen":
		return LevelScreen, nil
	case "error":
		return LevelError, nil
	case "critical", "fatal":
		return LevelCritical, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}

// LevelName returns the display name used in rendered output.
func LevelName(level slog.Level) string {
	return levelName(level)
}

// Package report renders boxed text blocks and tables for session banners,
// status output, and the CLI.
package report

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Alignment selects how a table column is justified.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Block renders lines inside a rounded box headed by title. Embedded
// newlines split into separate rows.
func Block(title string, lines []string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Title.Align = text.AlignCenter
	if title = strings.TrimSpace(title); title != "" {
		tw.SetTitle(title)
	}
	rows := 0
	for _, line := range lines {
		for _, part := range strings.Split(line, "\n") {
			tw.AppendRow(table.Row{part})
			rows++
		}
	}
	if rows == 0 {
		tw.AppendRow(table.Row{"(empty)"})
	}
	return tw.Render()
}

// Combine stacks rendered blocks, skipping empty ones.
func Combine(blocks ...string) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			parts = append(parts, b)
		}
	}
	return strings.Join(parts, "\n")
}

// Table renders rows under headers. Short rows are padded with blanks.
func Table(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column.
type column struct {
	title string
	right bool
}

func left(title string) column  { return column{title: title} }
func right(title string) column { return column{title: title, right: true} }

const maxCellWidth = 48

// renderTable draws rows under the given columns. Short rows are padded and
// extra cells are dropped. Header colour is only used on terminals.
func renderTable(columns []column, rows [][]string, colorize bool) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if colorize {
		tw.Style().Color.Header = text.Colors{text.Bold, text.FgCyan}
	}

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		align := text.AlignLeft
		if col.right {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft, WidthMax: maxCellWidth}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, cells := range rows {
		row := make(table.Row, len(columns))
		for i := range row {
			row[i] = ""
			if i < len(cells) {
				row[i] = cells[i]
			}
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}

package output

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hyperifyio/paperscrape/internal/extract"
)

const previewCellWidth = 48

// Preview renders the first n records as a table.
func Preview(w io.Writer, records []extract.Record, n int) {
	if n > len(records) || n < 0 {
		n = len(records)
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	header := table.Row{"#"}
	for _, c := range Columns {
		header = append(header, c)
	}
	t.AppendHeader(header)
	for i, r := range records[:n] {
		cells := table.Row{i}
		for _, v := range row(r) {
			cells = append(cells, v)
		}
		t.AppendRow(cells)
	}
	cfgs := make([]table.ColumnConfig, 0, len(Columns))
	for i := range Columns {
		cfgs = append(cfgs, table.ColumnConfig{Number: i + 2, WidthMax: previewCellWidth})
	}
	t.SetColumnConfigs(cfgs)
	t.SetStyle(table.StyleRounded)
	t.Render()
}

package cmd

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// newTable returns a left-aligned table writing to w.
func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	return table
}

// formatMinutes renders a minute count as "1d 2h 3m".
func formatMinutes(m int) string {
	if m < 0 {
		m = 0
	}
	d, h, mins := m/(24*60), (m/60)%24, m%60
	switch {
	case d > 0:
		return fmt.Sprintf("%dd %dh %dm", d, h, mins)
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}

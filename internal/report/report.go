// Package report renders the end-of-run cycle/stall summary, in the
// same jedib0t/go-pretty/v6/table style the teacher uses for its own
// diagnostic dumps (core/util.go's PrintState).
package report

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/nio/internal/system"
)

// Print renders r as a summary table to stdout, per SPEC_FULL.md §6.2.
func Print(r system.StallReport) {
	t := table.NewWriter()
	t.SetTitle("Simulation Summary")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Total cycles", r.TotalCycles})
	t.AppendRow(table.Row{"Memory stall cycles", r.MemoryStalls})
	t.AppendRow(table.Row{"Tile stall cycles", r.TileStalls})
	t.AppendRow(table.Row{"PE stall cycles", r.PEStalls})
	fmt.Println(t.Render())
}

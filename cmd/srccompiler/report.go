package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"srccompiler/internal/compiler"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	dim    = color.New(color.Faint)
)

func statusColor(s compiler.Status) *color.Color {
	switch s {
	case compiler.StatusLoaded:
		return green
	case compiler.StatusMissing, compiler.StatusGated:
		return yellow
	case compiler.StatusFailed, compiler.StatusReadFailed:
		return red
	default:
		return dim
	}
}

// renderReport prints one row per file plus a totals footer.
func renderReport(w io.Writer, rep compiler.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Status", "Read", "Loaded", "Quarantined", "Dialect", "Target"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	for _, f := range rep.Files {
		dialect := ""
		if f.Encoding != "" {
			dialect = fmt.Sprintf("%s %q", f.Encoding, f.Delimiter)
		}
		t.AppendRow(table.Row{
			f.Name,
			statusColor(f.Status).Sprint(string(f.Status)),
			f.Read,
			f.Loaded,
			f.Quarantined,
			dialect,
			f.TargetTable,
		})
	}

	loaded, quarantined := rep.Sum()
	t.AppendFooter(table.Row{"Total", "", "", loaded, quarantined, "", ""})
	t.Render()

	for _, f := range rep.Files {
		if f.Err != nil {
			_, _ = fmt.Fprintf(w, "%s: %s\n", f.Name, red.Sprint(f.Err.Error()))
		}
	}
	_, _ = fmt.Fprintf(w, "run %s finished in %s\n", rep.RunID, rep.Duration.Round(time.Millisecond))
}

package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AndreyAkinshin/measuretests/internal/runner"
)

var (
	kindTitle = cases.Title(language.English)
	printer   = message.NewPrinter(language.English)
)

// WriteTable renders one row per attempted target with its timing
// statistics. Targets without a timing summary show dashes.
func WriteTable(w io.Writer, r *runner.Result) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleLight
	style.Format.Footer = text.FormatDefault
	t.SetStyle(style)
	t.SetTitle(fmt.Sprintf("Timings (%s per target, %ds warmup)", plural(r.RunCount, "run"), r.WarmupSeconds))

	t.AppendHeader(table.Row{"Package", "Kind", "Target", "Runs", "Warmup", "Mean", "Median", "Min", "Max", "Total", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Package", AutoMerge: true},
		{Name: "Target", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Runs", Align: text.AlignRight},
		{Name: "Warmup", Align: text.AlignRight},
		{Name: "Mean", Align: text.AlignRight},
		{Name: "Median", Align: text.AlignRight},
		{Name: "Min", Align: text.AlignRight},
		{Name: "Max", Align: text.AlignRight},
		{Name: "Total", Align: text.AlignRight},
	})

	var total time.Duration
	for _, a := range r.Attempted {
		row := table.Row{a.Target.Package, kindTitle.String(a.Target.Kind.String()), a.Target.Name, a.Runs, a.WarmupRuns}
		if s, ok := r.Timings[a.Target.Identity]; ok && s.Count > 0 {
			row = append(row, formatDuration(s.Mean), formatDuration(s.Median), formatDuration(s.Min), formatDuration(s.Max), formatDuration(s.Total))
			total += s.Total
		} else {
			row = append(row, "-", "-", "-", "-", "-")
		}
		row = append(row, status(a.Failed))
		t.AppendRow(row)
	}

	t.AppendFooter(table.Row{
		"Total", "", printer.Sprintf("%d targets", len(r.Attempted)), "", "", "", "", "", "", formatDuration(total), summaryStatus(r),
	})
	t.Render()
	return nil
}

func status(failed bool) string {
	if failed {
		return "FAILED"
	}
	return "ok"
}

func summaryStatus(r *runner.Result) string {
	if r.Success() {
		return "ok"
	}
	return printer.Sprintf("%d failed", len(r.Failures))
}

func plural(n int, word string) string {
	if n == 1 {
		return printer.Sprintf("%d %s", n, word)
	}
	return printer.Sprintf("%d %ss", n, word)
}

// formatDuration keeps three significant decimals at the appropriate unit.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
}

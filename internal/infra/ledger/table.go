package ledger

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	domain "github.com/bryanwahyu/gradebench/internal/domain/verdicts"
)

var summaryHeaders = []string{"Group", "Records", "Numeric", "Mean", "Min", "Max"}

func newSummaryTable(w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(summaryHeaders),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

// WriteSummaryTable renders per-group statistics as a markdown table.
func WriteSummaryTable(w io.Writer, summaries []domain.Summary) error {
	table := newSummaryTable(w)
	for _, s := range summaries {
		row := []string{s.Key.String(), fmt.Sprint(s.Count), fmt.Sprint(s.Numeric), "-", "-", "-"}
		if s.Numeric > 0 {
			row[3] = fmt.Sprintf("%.2f", s.Mean)
			row[4] = fmt.Sprintf("%.2f", s.Min)
			row[5] = fmt.Sprintf("%.2f", s.Max)
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// Package output provides utilities for formatting and displaying computed
// statements.
package output

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/internal/projection"
	"github.com/finmodeler/statement-engine/internal/report"
	"github.com/finmodeler/statement-engine/pkg/constants"
	"github.com/finmodeler/statement-engine/pkg/units"
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(rep *report.Report) {
	p := message.NewPrinter(language.English)
	years := append(append([]string(nil), rep.HistoricalYears...), rep.ProjectionYears...)
	labelWidth := labelColumnWidth(rep)
	for _, st := range rep.Statements {
		fmt.Printf("--- %s (%s, %s) ---\n", st.Title, rep.Currency, units.Label(rep.DisplayUnit))
		fmt.Printf("%-*s", labelWidth, "Line Item")
		for _, year := range years {
			fmt.Printf(" | %12s", yearHeading(rep, year))
		}
		fmt.Printf("\n")
		fmt.Printf("%s", strings.Repeat("_", labelWidth))
		for range years {
			fmt.Printf(" | %12s", strings.Repeat("_", 12))
		}
		fmt.Printf("\n")
		for _, row := range st.Rows {
			label := strings.Repeat("  ", row.Depth) + row.Label
			fmt.Printf("%-*s", labelWidth, label)
			for _, year := range years {
				_, _ = p.Printf(" | %12s", formatCell(row, row.Values[year], rep.DisplayUnit))
			}
			fmt.Printf("\n")
		}
		fmt.Printf("\n")
	}
	printDiagnostics(rep)
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(rep *report.Report) {
	years := append(append([]string(nil), rep.HistoricalYears...), rep.ProjectionYears...)
	for _, st := range rep.Statements {
		fmt.Printf(`"statement","row","label"`)
		for _, year := range years {
			fmt.Printf(`,"%s"`, year)
		}
		fmt.Printf("\n")
		for _, row := range st.Rows {
			fmt.Printf(`"%s","%s","%s"`, st.Name, row.ID, row.Label)
			for _, year := range years {
				if row.ValueType == model.TypePercent {
					fmt.Printf(`,"%.4f"`, row.Values[year])
				} else {
					fmt.Printf(`,"%.2f"`, units.ToDisplay(row.Values[year], rep.DisplayUnit))
				}
			}
			fmt.Printf("\n")
		}
		fmt.Printf("\n")
	}
}

func formatCell(row report.Row, stored float64, unit units.Unit) string {
	if row.ValueType == model.TypePercent {
		return fmt.Sprintf("%.1f%%", stored*constants.PercentDivisor)
	}
	return units.FormatDisplay(stored, unit)
}

func yearHeading(rep *report.Report, year string) string {
	for _, projected := range rep.ProjectionYears {
		if projected == year {
			return year + "E"
		}
	}
	return year
}

func labelColumnWidth(rep *report.Report) int {
	width := len("Line Item")
	for _, st := range rep.Statements {
		for _, row := range st.Rows {
			if n := 2*row.Depth + len(row.Label); n > width {
				width = n
			}
		}
	}
	return width
}

func printDiagnostics(rep *report.Report) {
	if rep.Revenue == nil || len(rep.Revenue.Streams) == 0 {
		return
	}
	header := false
	for id, diag := range rep.Revenue.Streams {
		if diag.Mode == projection.ModeSummation && !diag.InvalidMix {
			continue
		}
		if !header {
			fmt.Printf("--- Revenue Resolution ---\n")
			header = true
		}
		if diag.InvalidMix {
			fmt.Printf("%s: mixed growth, driver, and percent-of-stream breakdowns; fell back to summation\n", id)
			continue
		}
		fmt.Printf("%s: resolved via %s\n", id, diag.Mode)
	}
	if header {
		fmt.Printf("\n")
	}
}

// Package export writes computed statements to an xlsx workbook, one sheet
// per statement plus a revenue build sheet.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/internal/projection"
	"github.com/finmodeler/statement-engine/internal/report"
	"github.com/finmodeler/statement-engine/pkg/constants"
	"github.com/finmodeler/statement-engine/pkg/units"
)

// Workbook builds an xlsx workbook from a computed report. Values are
// written in the model's display unit.
func Workbook(rep *report.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	years := append(append([]string(nil), rep.HistoricalYears...), rep.ProjectionYears...)

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style, %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "top", Style: 1, Color: "000000"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create total style, %w", err)
	}

	for _, st := range rep.Statements {
		if err := writeStatement(f, rep, st, years, headerStyle, totalStyle); err != nil {
			return nil, err
		}
	}
	if err := writeRevenueBuild(f, rep, headerStyle); err != nil {
		return nil, err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet, %w", err)
	}
	if len(rep.Statements) > 0 {
		if idx, err := f.GetSheetIndex(sheetTitle(rep.Statements[0])); err == nil && idx >= 0 {
			f.SetActiveSheet(idx)
		}
	}
	return f, nil
}

// Write streams the workbook to w.
func Write(rep *report.Report, w io.Writer) error {
	f, err := Workbook(rep)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook, %w", err)
	}
	return nil
}

// Save writes the workbook to path.
func Save(rep *report.Report, path string) error {
	f, err := Workbook(rep)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook to %s, %w", path, err)
	}
	return nil
}

func sheetTitle(st report.Statement) string {
	if st.Title != "" {
		return st.Title
	}
	return st.Name
}

func writeStatement(f *excelize.File, rep *report.Report, st report.Statement, years []string, headerStyle, totalStyle int) error {
	sheet := sheetTitle(st)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s, %w", sheet, err)
	}

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("%s (%s, %s)", st.Title, rep.Currency, units.Label(rep.DisplayUnit)))
	_ = f.SetCellValue(sheet, "A2", "Line Item")
	for col, year := range years {
		cell, err := excelize.CoordinatesToCellName(col+2, 2)
		if err != nil {
			return fmt.Errorf("failed to address year column, %w", err)
		}
		_ = f.SetCellValue(sheet, cell, year)
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(years)+1, 2)
	_ = f.SetCellStyle(sheet, "A2", endHeader, headerStyle)

	for i, row := range st.Rows {
		rowNum := i + 3
		labelCell, _ := excelize.CoordinatesToCellName(1, rowNum)
		indent := ""
		for d := 0; d < row.Depth; d++ {
			indent += "  "
		}
		_ = f.SetCellValue(sheet, labelCell, indent+row.Label)
		for col, year := range years {
			cell, err := excelize.CoordinatesToCellName(col+2, rowNum)
			if err != nil {
				return fmt.Errorf("failed to address value cell, %w", err)
			}
			if row.ValueType == model.TypePercent {
				_ = f.SetCellValue(sheet, cell, row.Values[year]*constants.PercentDivisor)
			} else {
				_ = f.SetCellValue(sheet, cell, units.ToDisplay(row.Values[year], rep.DisplayUnit))
			}
		}
		if row.Kind == model.KindTotal || row.Kind == model.KindSubtotal {
			endCell, _ := excelize.CoordinatesToCellName(len(years)+1, rowNum)
			_ = f.SetCellStyle(sheet, labelCell, endCell, totalStyle)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 36)
	endCol, _ := excelize.ColumnNumberToName(len(years) + 1)
	_ = f.SetColWidth(sheet, "B", endCol, 14)
	return nil
}

// writeRevenueBuild lays out the projection-engine output: every projected
// item by year, plus how each stream was resolved.
func writeRevenueBuild(f *excelize.File, rep *report.Report, headerStyle int) error {
	if rep.Revenue == nil || len(rep.Revenue.Values) == 0 {
		return nil
	}
	const sheet = "Revenue Build"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s, %w", sheet, err)
	}

	_ = f.SetCellValue(sheet, "A1", "Item")
	for col, year := range rep.ProjectionYears {
		cell, err := excelize.CoordinatesToCellName(col+2, 1)
		if err != nil {
			return fmt.Errorf("failed to address year column, %w", err)
		}
		_ = f.SetCellValue(sheet, cell, year)
	}
	resolutionCol := len(rep.ProjectionYears) + 2
	cell, _ := excelize.CoordinatesToCellName(resolutionCol, 1)
	_ = f.SetCellValue(sheet, cell, "Resolution")
	endHeader, _ := excelize.CoordinatesToCellName(resolutionCol, 1)
	_ = f.SetCellStyle(sheet, "A1", endHeader, headerStyle)

	ids := make([]string, 0, len(rep.Revenue.Values))
	for id := range rep.Revenue.Values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i, id := range ids {
		rowNum := i + 2
		labelCell, _ := excelize.CoordinatesToCellName(1, rowNum)
		_ = f.SetCellValue(sheet, labelCell, id)
		for col, year := range rep.ProjectionYears {
			valueCell, err := excelize.CoordinatesToCellName(col+2, rowNum)
			if err != nil {
				return fmt.Errorf("failed to address value cell, %w", err)
			}
			_ = f.SetCellValue(sheet, valueCell, units.ToDisplay(rep.Revenue.Value(id, year), rep.DisplayUnit))
		}
		if diag, ok := rep.Revenue.Streams[id]; ok {
			resCell, _ := excelize.CoordinatesToCellName(resolutionCol, rowNum)
			_ = f.SetCellValue(sheet, resCell, resolutionNote(diag))
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 28)
	return nil
}

func resolutionNote(diag projection.StreamDiagnostics) string {
	if diag.InvalidMix {
		return "invalid mix, summed"
	}
	return string(diag.Mode)
}

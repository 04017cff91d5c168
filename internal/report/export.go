package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	previewSheet = "Preview"
	summarySheet = "Summary"
)

var PreviewHeader = []string{
	"Sex",
	"Type",
	"Facility",
	"Date",
	"Time",
	"Weight",
	"Mother Age",
	"Gestational Age",
	"Delivery Place",
}

var previewColWidths = []float64{10, 24, 28, 14, 10, 10, 12, 16, 20}

func (p PreviewRow) cells() []any {
	return []any{p.Sex, p.Type, p.Facility, p.Date, p.Time, p.Weight, p.MotherAge, p.GestationalAge, p.DeliveryPlace}
}

// WritePreviewXLSX writes the preview rows and the tile summary as an xlsx workbook.
func WritePreviewXLSX(w io.Writer, rows []PreviewRow, summary TileSummary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(previewSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := f.SetSheetRow(previewSheet, "A1", &PreviewHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(PreviewHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(previewSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	for i, width := range previewColWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(previewSheet, col, col, width); err != nil {
			return fmt.Errorf("col width: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row.cells()
		if err := f.SetSheetRow(previewSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summaryRows := [][]any{
		{"Total", summary.Total},
		{"Female", summary.Sex.Female},
		{"Male", summary.Sex.Male},
		{"Fresh", summary.Type.Fresh},
		{"Macerated", summary.Type.Macerated},
		{"Home", summary.Place.Home},
		{"Facility", summary.Place.Facility},
	}
	for i, values := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ramonehamilton/palico-bot/internal/mhw/armor"
)

// Sheet names in the exported workbook.
const (
	SheetSets   = "Sets"
	SheetPieces = "Pieces"
)

// WriteXLSX writes a workbook with set totals and per-piece detail.
func WriteXLSX(w io.Writer, idx *armor.SetIndex) error {
	sets, pieces := Rows(idx)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSets); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetPieces); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	setRows := make([][]interface{}, 0, len(sets))
	for _, r := range sets {
		setRows = append(setRows, r.cells())
	}
	if err := writeSheet(f, SheetSets, setHeaders, setRows, headerStyle); err != nil {
		return err
	}

	pieceRows := make([][]interface{}, 0, len(pieces))
	for _, r := range pieces {
		pieceRows = append(pieceRows, r.cells())
	}
	if err := writeSheet(f, SheetPieces, pieceHeaders, pieceRows, headerStyle); err != nil {
		return err
	}

	if err := f.SetColWidth(SheetSets, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSets, "C", "C", 60); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetPieces, "A", "C", 28); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

package excel

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// SheetReader returns the cell grid of the first worksheet.
type SheetReader interface {
	ReadFirstSheet(data []byte) ([][]string, error)
}

var (
	zipSignature  = []byte{'P', 'K', 0x03, 0x04}
	ole2Signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// readerFor picks the reader by container signature; nil means the bytes are
// not a workbook.
func readerFor(data []byte) SheetReader {
	switch {
	case bytes.HasPrefix(data, zipSignature):
		return xlsxReader{}
	case bytes.HasPrefix(data, ole2Signature):
		return xlsReader{}
	}
	return nil
}

type xlsxReader struct{}

func (xlsxReader) ReadFirstSheet(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// xlsReader handles legacy BIFF workbooks.
type xlsReader struct{}

func (xlsReader) ReadFirstSheet(data []byte) (grid [][]string, err error) {
	// extrame/xls panics on some truncated streams.
	defer func() {
		if r := recover(); r != nil {
			grid, err = nil, fmt.Errorf("corrupt xls stream: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls file: %w", err)
	}
	if wb == nil {
		return nil, fmt.Errorf("no workbook stream in xls file")
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("failed to read first sheet")
	}

	grid = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for col := row.FirstCol(); col < row.LastCol(); col++ {
			cells[col] = row.Col(col)
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// sheetRow returns nil for rows the sheet never recorded; WorkSheet.Row
// dereferences the missing entry.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

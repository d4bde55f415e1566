package excel

import (
	"fmt"
	"strings"

	"onduty-admin/internal/logger"
	"onduty-admin/internal/model"
	"onduty-admin/pkg/errors"

	"github.com/rs/zerolog"
)

// Decoder turns workbook bytes into header-keyed rows of the first sheet.
type Decoder struct {
	log zerolog.Logger
}

func NewDecoder() *Decoder {
	return &Decoder{
		log: logger.Get(),
	}
}

// Decode returns one RawRow per non-blank data row, in sheet order. The only
// error it returns is an UnreadableFile DecodeError.
func (d *Decoder) Decode(data []byte) ([]model.RawRow, error) {
	reader := readerFor(data)
	if reader == nil {
		return nil, errors.NewDecodeError(fmt.Errorf("not a spreadsheet container"))
	}

	grid, err := reader.ReadFirstSheet(data)
	if err != nil {
		return nil, errors.NewDecodeError(err)
	}

	rows := rowsFromGrid(grid)
	d.log.Debug().Int("row_count", len(rows)).Msg("Spreadsheet decoded")
	return rows, nil
}

func rowsFromGrid(grid [][]string) []model.RawRow {
	if len(grid) < 2 { // Header + at least one data row
		return []model.RawRow{}
	}

	// Header text is matched exactly; the first of duplicate headers wins.
	header := make([]string, len(grid[0]))
	seen := make(map[string]bool, len(grid[0]))
	for i, col := range grid[0] {
		name := strings.TrimSpace(col)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		header[i] = name
	}

	rows := make([]model.RawRow, 0, len(grid)-1)
	for i, cells := range grid[1:] {
		row := model.RawRow{
			Index: i + 2, // i+2 for actual row number
			Cells: make(map[string]any, len(header)),
		}
		for col, name := range header {
			if name == "" || col >= len(cells) {
				continue
			}
			if strings.TrimSpace(cells[col]) == "" {
				continue
			}
			row.Cells[name] = cells[col]
		}
		if len(row.Cells) == 0 {
			continue // Skip blank rows
		}
		rows = append(rows, row)
	}
	return rows
}

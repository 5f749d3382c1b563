package timeseries

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// LoadWorkbook reads observations from the first sheet of an .xlsx file
// laid out wide: a sector column, an optional sub-sector column, and one
// column per period.
func LoadWorkbook(filename string, opts *CSVOptions) ([]Observation, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filename)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return ParseWide(rows, opts)
}

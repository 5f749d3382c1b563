package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	SectorColumn    string // Column name for the sector (default: "sector")
	SubSectorColumn string // Column name for the sub-sector (optional)
	PeriodColumn    string // Column name for the period in long files (default: "period")
	ValueColumn     string // Column name for values in long files (default: "value")
	Delimiter       rune   // Field delimiter (default: ',')
	SkipRows        int    // Number of rows to skip at start

	// Wide files carry one column per period. FirstPeriod numbers the
	// value columns when their headers are not periods themselves.
	FirstPeriod *Period
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		SectorColumn:    "sector",
		SubSectorColumn: "sub_sector",
		PeriodColumn:    "period",
		ValueColumn:     "value",
		Delimiter:       ',',
	}
}

// LoadCSV loads observations from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) ([]Observation, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadCSVFromReader(file, opts)
}

// LoadCSVFromReader loads observations from an io.Reader. A header with a
// period column selects the long layout, otherwise the wide layout is used.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) ([]Observation, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty CSV")
	}

	if columnIndex(rows[0], opts.PeriodColumn) >= 0 {
		return parseLong(rows, opts)
	}
	return ParseWide(rows, opts)
}

func parseLong(rows [][]string, opts *CSVOptions) ([]Observation, error) {
	header := rows[0]
	sectorIdx := columnIndex(header, opts.SectorColumn)
	subIdx := columnIndex(header, opts.SubSectorColumn)
	periodIdx := columnIndex(header, opts.PeriodColumn)
	valueIdx := columnIndex(header, opts.ValueColumn)
	if sectorIdx < 0 || valueIdx < 0 {
		return nil, fmt.Errorf("long CSV needs %q and %q columns", opts.SectorColumn, opts.ValueColumn)
	}

	var obs []Observation
	for _, record := range rows[1:] {
		sector := cell(record, sectorIdx)
		if sector == "" {
			continue
		}
		p, err := ParsePeriod(cell(record, periodIdx))
		if err != nil {
			continue
		}
		val, ok := ParseNumber(cell(record, valueIdx))
		if !ok {
			continue // Skip invalid values
		}
		obs = append(obs, Observation{
			Sector:    sector,
			SubSector: cell(record, subIdx),
			Period:    p,
			Value:     val,
		})
	}

	if len(obs) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}
	return obs, nil
}

// ParseWide converts a header row plus data rows, with one column per
// period, into observations. It backs both the CSV and workbook readers.
func ParseWide(rows [][]string, opts *CSVOptions) ([]Observation, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	if len(rows) < 2 {
		return nil, errors.New("wide table needs a header and at least one row")
	}
	header := rows[0]
	sectorIdx := columnIndex(header, opts.SectorColumn)
	if sectorIdx < 0 {
		sectorIdx = 0
	}
	subIdx := columnIndex(header, opts.SubSectorColumn)

	type col struct {
		idx    int
		period Period
	}
	var cols []col
	next := 0
	for i, h := range header {
		if i == sectorIdx || i == subIdx {
			continue
		}
		if opts.FirstPeriod != nil {
			cols = append(cols, col{idx: i, period: opts.FirstPeriod.Add(next)})
			next++
			continue
		}
		p, err := ParsePeriod(h)
		if err != nil {
			continue
		}
		cols = append(cols, col{idx: i, period: p})
	}
	if len(cols) == 0 {
		return nil, errors.New("no period columns found")
	}

	var obs []Observation
	for _, record := range rows[1:] {
		sector := cell(record, sectorIdx)
		if sector == "" {
			continue
		}
		sub := cell(record, subIdx)
		for _, c := range cols {
			val, ok := ParseNumber(cell(record, c.idx))
			if !ok {
				continue
			}
			obs = append(obs, Observation{Sector: sector, SubSector: sub, Period: c.period, Value: val})
		}
	}

	if len(obs) == 0 {
		return nil, errors.New("no valid data found")
	}
	return obs, nil
}

// ParseNumber parses a cell such as "1,234.5". Blank and NA cells are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	switch s {
	case "", "NA", "NaN", "null", "-":
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func columnIndex(header []string, name string) int {
	if name == "" {
		return -1
	}
	want := normalizeHeader(name)
	for i, h := range header {
		if normalizeHeader(h) == want {
			return i
		}
	}
	return -1
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.Trim(h, "\"\ufeff")))
	return strings.NewReplacer("-", "_", " ", "_").Replace(h)
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(strings.Trim(record[idx], "\""))
}

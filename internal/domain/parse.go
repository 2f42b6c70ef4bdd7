package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// maxCount bounds every raw count so that sums across districts and dates
// cannot overflow.
const maxCount = math.MaxInt32

// MinColumns is the minimum number of fields a report row must carry.
const MinColumns = 8

// Column names consumed from the daily reports.
const (
	ColState           = "bundesland"
	ColDistrict        = "gemeindeschluessel"
	ColReportingAreas  = "anzahl_meldebereiche"
	ColCovidCases      = "faelle_covid_aktuell"
	ColCovidVentilated = "faelle_covid_aktuell_beatmet"
	ColSites           = "anzahl_standorte"
	ColBedsFree        = "betten_frei"
	ColBedsOccupied    = "betten_belegt"
)

// ColDataAsOf is the timestamp column added in later reports. It is accepted
// but not read.
const ColDataAsOf = "daten_stand"

var requiredColumns = []string{
	ColState, ColDistrict, ColReportingAreas, ColCovidCases,
	ColCovidVentilated, ColSites, ColBedsFree, ColBedsOccupied,
}

// excludedDates are early reports in a county-level schema without district
// keys. They never contribute rows.
var excludedDates = map[string]bool{
	"2020-04-24": true,
	"2020-04-25": true,
}

// IsExcludedDate reports whether the report for date is skipped.
func IsExcludedDate(date string) bool {
	return excludedDates[date]
}

// ReportFile is one cached daily report. Date is the file's base name and is
// not validated.
type ReportFile struct {
	Date string
	Path string
}

// IsISODate reports whether s is a calendar date in YYYY-MM-DD form.
func IsISODate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// ParseReport reads one daily report CSV. Columns are resolved by header name,
// so reordered and additional columns are accepted as long as the consumed
// ones are present.
func ParseReport(r io.Reader, date string) ([]DistrictRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", date, err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", date, err)
	}

	var rows []DistrictRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read report %s: %w", date, err)
		}
		line, _ := cr.FieldPos(0)
		row, err := parseRow(rec, cols, date)
		if err != nil {
			return nil, fmt.Errorf("report %s line %d: %w", date, line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		cols[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedRow, name)
		}
	}
	return cols, nil
}

func parseRow(rec []string, cols map[string]int, date string) (DistrictRow, error) {
	if len(rec) < MinColumns {
		return DistrictRow{}, fmt.Errorf("%w: %d fields, want at least %d", ErrMalformedRow, len(rec), MinColumns)
	}
	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(rec) {
			return "", fmt.Errorf("%w: column %q missing from row", ErrMalformedRow, name)
		}
		return strings.TrimSpace(rec[i]), nil
	}

	p := rowParser{field: field}
	c := Counts{
		ReportingAreas:  p.integer(ColReportingAreas),
		CovidCases:      p.integer(ColCovidCases),
		CovidVentilated: p.integer(ColCovidVentilated),
		Sites:           p.integer(ColSites),
		BedsFree:        p.truncated(ColBedsFree),
		BedsOccupied:    p.truncated(ColBedsOccupied),
	}
	state := p.text(ColState)
	district := p.text(ColDistrict)
	if p.err != nil {
		return DistrictRow{}, p.err
	}
	if district == "" {
		return DistrictRow{}, fmt.Errorf("%w: empty %s", ErrMalformedRow, ColDistrict)
	}

	return DistrictRow{
		Date:       date,
		StateID:    NormalizeStateID(state),
		DistrictID: NormalizeDistrictID(district),
		Counts:     c,
	}, nil
}

// rowParser keeps the first error so a row can be decoded in one pass.
type rowParser struct {
	field func(name string) (string, error)
	err   error
}

func (p *rowParser) text(name string) string {
	if p.err != nil {
		return ""
	}
	v, err := p.field(name)
	if err != nil {
		p.err = err
	}
	return v
}

func (p *rowParser) integer(name string) int {
	s := p.text(name)
	if p.err != nil {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > maxCount {
		p.err = fmt.Errorf("%w: %s=%q is not a non-negative integer", ErrMalformedRow, name, s)
		return 0
	}
	return n
}

// truncated accepts fractional values ("12.0") and truncates toward zero.
func (p *rowParser) truncated(name string) int {
	s := p.text(name)
	if p.err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > maxCount || math.IsNaN(f) || math.IsInf(f, 0) {
		p.err = fmt.Errorf("%w: %s=%q is not a non-negative number", ErrMalformedRow, name, s)
		return 0
	}
	return int(math.Trunc(f))
}

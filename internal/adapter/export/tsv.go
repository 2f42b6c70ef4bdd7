package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
	"github.com/google/renameio/v2"
)

// TSVColumns is the header of every district TSV file.
var TSVColumns = []string{
	"Date",
	"betten_ges",
	"betten_belegt",
	"betten_belegt_proz",
	"faelle_covid_aktuell",
	"faelle_covid_aktuell_proz",
	"faelle_covid_aktuell_beatmet",
	"faelle_covid_aktuell_beatmet_proz",
}

// TSVRow is one parsed TSV line. Nil percentages were empty cells.
type TSVRow struct {
	Date            string
	BedsTotal       int
	BedsOccupied    int
	OccupiedPct     *float64
	CovidCases      int
	CovidSharePct   *float64
	CovidVentilated int
	VentilatedPct   *float64
}

// TSVExporter writes one tab-separated file per district.
type TSVExporter struct {
	dir string
}

// NewTSVExporter creates an exporter writing into dir.
func NewTSVExporter(dir string) *TSVExporter {
	return &TSVExporter{dir: dir}
}

// Path is the TSV file of a district.
func (e *TSVExporter) Path(districtID string) string {
	return filepath.Join(e.dir, districtID+".tsv")
}

// Export writes every district, replacing existing files.
func (e *TSVExporter) Export(districts domain.DistrictSeries) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create tsv directory: %w", err)
	}
	for _, id := range districts.IDs() {
		if err := e.writeDistrict(e.Path(id), districts[id]); err != nil {
			return fmt.Errorf("export district %s: %w", id, err)
		}
	}
	return nil
}

func (e *TSVExporter) writeDistrict(path string, records []domain.DailyRecord) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return err
	}
	defer pending.Cleanup() //nolint:errcheck // no-op after a successful replace

	if err := WriteTSV(pending, records); err != nil {
		return err
	}
	return pending.CloseAtomicallyReplace()
}

// WriteTSV writes the header and one line per record.
func WriteTSV(w io.Writer, records []domain.DailyRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(TSVColumns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{
			r.Date,
			strconv.Itoa(r.BedsTotal),
			strconv.Itoa(r.BedsOccupied),
			formatPct(r.OccupiedPct),
			strconv.Itoa(r.CovidCases),
			formatPct(r.CovidSharePct),
			strconv.Itoa(r.CovidVentilated),
			formatVentilated(r),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatPct(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

// formatVentilated writes a share without covid cases as the integer 0.
func formatVentilated(r domain.DailyRecord) string {
	if r.CovidCases == 0 {
		return "0"
	}
	return formatPct(&r.VentilatedPct)
}

// ParseTSV reads a district TSV by column name.
func ParseTSV(r io.Reader) ([]TSVRow, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read tsv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range TSVColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("tsv header: missing column %q", name)
		}
	}

	var rows []TSVRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read tsv: %w", err)
		}
		if len(rec) < len(TSVColumns) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("tsv line %d: %d fields, want %d", line, len(rec), len(TSVColumns))
		}
		p := tsvParser{rec: rec, col: col}
		row := TSVRow{
			Date:            rec[col["Date"]],
			BedsTotal:       p.integer("betten_ges"),
			BedsOccupied:    p.integer("betten_belegt"),
			OccupiedPct:     p.percent("betten_belegt_proz"),
			CovidCases:      p.integer("faelle_covid_aktuell"),
			CovidSharePct:   p.percent("faelle_covid_aktuell_proz"),
			CovidVentilated: p.integer("faelle_covid_aktuell_beatmet"),
			VentilatedPct:   p.percent("faelle_covid_aktuell_beatmet_proz"),
		}
		if p.err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("tsv line %d: %w", line, p.err)
		}
		rows = append(rows, row)
	}
}

// tsvParser keeps the first conversion error of a row.
type tsvParser struct {
	rec []string
	col map[string]int
	err error
}

func (p *tsvParser) integer(name string) int {
	v, err := strconv.Atoi(p.rec[p.col[name]])
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", name, err)
	}
	return v
}

func (p *tsvParser) percent(name string) *float64 {
	s := p.rec[p.col[name]]
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("column %s: %w", name, err)
		}
		return nil
	}
	return &v
}

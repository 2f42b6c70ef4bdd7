// Command validate checks the published outputs of an ETL run against each
// other: the district TSVs against the JSON index, every stored percentage
// against a recomputation from the raw counts, and the nationwide series
// against the sum of the states and of the districts.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -index cache/de-divi/de-divi-V3.json \
//	  -states cache/de-divi/de-divi-V3-states.json \
//	  -tsv-dir data/de-divi/tsv
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/divi-occupancy-etl/internal/adapter/export"
	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	indexPath := flag.String("index", filepath.Join("cache", "de-divi", "de-divi-V3.json"), "path to the district JSON index")
	statesPath := flag.String("states", filepath.Join("cache", "de-divi", "de-divi-V3-states.json"), "path to the region JSON file")
	tsvDir := flag.String("tsv-dir", filepath.Join("data", "de-divi", "tsv"), "directory of the district TSV files")
	flag.Parse()

	os.Exit(run(*indexPath, *statesPath, *tsvDir))
}

func run(indexPath, statesPath, tsvDir string) int {
	fmt.Println("=== DIVI Output Integrity Validation ===")
	fmt.Println()

	index, err := export.ReadIndex(indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load index: %v\n", err)
		return 1
	}
	states, err := export.ReadIndex(statesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load states: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateTSVRoundTrip(index, tsvDir),
		validatePercentages("District percentage recomputation", index),
		validatePercentages("Region percentage recomputation", states),
		validateRegionCoverage(states),
		validateMassConservation(index, states),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d districts, %d district-days, %d regions, %d region-days\n",
		len(index), countRecords(index), len(states), countRecords(states))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func countRecords(series map[string][]domain.DailyRecord) int {
	n := 0
	for _, recs := range series {
		n += len(recs)
	}
	return n
}

func sortedKeys(series map[string][]domain.DailyRecord) []string {
	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ── Phase 1: TSV files mirror the index ──

func validateTSVRoundTrip(index map[string][]domain.DailyRecord, tsvDir string) *phase {
	p := &phase{name: "TSV / index round trip"}

	entries, err := os.ReadDir(tsvDir)
	if err != nil {
		p.errorf("read %s: %v", tsvDir, err)
		return p
	}
	for _, e := range entries {
		id := strings.TrimSuffix(e.Name(), ".tsv")
		if _, ok := index[id]; !ok && strings.HasSuffix(e.Name(), ".tsv") {
			p.errorf("%s: TSV file without index entry", e.Name())
		}
	}

	for _, id := range sortedKeys(index) {
		rows, err := readTSV(filepath.Join(tsvDir, id+".tsv"))
		if err != nil {
			p.errorf("district %s: %v", id, err)
			continue
		}
		recs := index[id]
		if len(rows) != len(recs) {
			p.errorf("district %s: %d TSV rows, %d index records", id, len(rows), len(recs))
			continue
		}
		for i, r := range recs {
			ventilated := r.VentilatedPct
			want := export.TSVRow{
				Date:            r.Date,
				BedsTotal:       r.BedsTotal,
				BedsOccupied:    r.BedsOccupied,
				OccupiedPct:     r.OccupiedPct,
				CovidCases:      r.CovidCases,
				CovidSharePct:   r.CovidSharePct,
				CovidVentilated: r.CovidVentilated,
				VentilatedPct:   &ventilated,
			}
			if diff := cmp.Diff(want, rows[i]); diff != "" {
				p.errorf("district %s row %d (%s): %s", id, i+1, r.Date, strings.Join(strings.Fields(diff), " "))
			}
		}
	}
	return p
}

func readTSV(path string) ([]export.TSVRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return export.ParseTSV(f)
}

// ── Phase 2: percentages derive from the raw counts ──

func validatePercentages(name string, series map[string][]domain.DailyRecord) *phase {
	p := &phase{name: name}
	for _, key := range sortedKeys(series) {
		for _, r := range series[key] {
			want := domain.NewDailyRecord(r.Date, r.Counts())
			if diff := cmp.Diff(want, r); diff != "" {
				p.errorf("%s on %s: %s", key, r.Date, strings.Join(strings.Fields(diff), " "))
			}
		}
	}
	return p
}

// ── Phase 3: every region is present ──

func validateRegionCoverage(states map[string][]domain.DailyRecord) *phase {
	p := &phase{name: "Region coverage"}
	for _, code := range domain.RegionCodes() {
		if _, ok := states[code]; !ok {
			p.errorf("region %s missing", code)
		}
	}
	if len(states) != len(domain.RegionCodes()) {
		p.errorf("%d regions, want %d", len(states), len(domain.RegionCodes()))
	}
	return p
}

// ── Phase 4: nationwide equals the sum of its parts ──

func validateMassConservation(index, states map[string][]domain.DailyRecord) *phase {
	p := &phase{name: "Nationwide mass conservation"}

	stateSums := make(map[string]*domain.Counts)
	districtSums := make(map[string]*domain.Counts)
	add := func(sums map[string]*domain.Counts, r domain.DailyRecord) {
		c, ok := sums[r.Date]
		if !ok {
			c = &domain.Counts{}
			sums[r.Date] = c
		}
		c.Add(r.Counts())
	}

	for code, recs := range states {
		if code == domain.NationwideID {
			continue
		}
		for _, r := range recs {
			add(stateSums, r)
		}
	}
	for _, recs := range index {
		for _, r := range recs {
			add(districtSums, r)
		}
	}

	total := states[domain.NationwideID]
	if len(total) != len(stateSums) {
		p.errorf("%s has %d dates, states cover %d", domain.NationwideID, len(total), len(stateSums))
	}
	for _, r := range total {
		if s, ok := stateSums[r.Date]; !ok || *s != r.Counts() {
			p.errorf("%s: nationwide %+v differs from sum of states %+v", r.Date, r.Counts(), s)
		}
		if d, ok := districtSums[r.Date]; !ok || *d != r.Counts() {
			p.errorf("%s: nationwide %+v differs from sum of districts %+v", r.Date, r.Counts(), d)
		}
	}
	return p
}

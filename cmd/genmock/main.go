// Command genmock writes synthetic DIVI daily reports for offline runs
// (FETCH_ENABLED=false). Each date uses the CSV layout DIVI published at that
// time, and every generated file is parsed back with the real report parser
// so the fixtures match pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/de-divi/downloaded \
//	  -start 2020-04-24 -days 70 -seed 1
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
)

// Headers as published by DIVI at different points in time.
var (
	headerCounty = []string{"bundesland", "kreis", "anzahl_standorte", "betten_frei", "betten_belegt", "faelle_covid_aktuell_im_bundesland"}
	headerApr26  = []string{"gemeindeschluessel", "anzahl_meldebereiche", "faelle_covid_aktuell", "faelle_covid_aktuell_beatmet", "anzahl_standorte", "betten_frei", "betten_belegt", "bundesland"}
	headerApr28  = append(append([]string{}, headerApr26...), "daten_stand")
	headerJun28  = []string{"bundesland", "gemeindeschluessel", "anzahl_meldebereiche", "faelle_covid_aktuell", "faelle_covid_aktuell_beatmet", "anzahl_standorte", "betten_frei", "betten_belegt", "daten_stand"}
)

// district is a synthetic reporting district with a stable bed capacity.
type district struct {
	stateID string
	id      string
	beds    int
	sites   int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", filepath.Join("data", "de-divi", "downloaded"), "directory for the generated <date>.csv files")
	start := flag.String("start", "2020-04-24", "first report date")
	days := flag.Int("days", 70, "number of consecutive daily reports")
	perState := flag.Int("districts", 3, "districts per state")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	first, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	if *days <= 0 || *perState <= 0 {
		flag.Usage()
		return fmt.Errorf("-days and -districts must be positive")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	districts := makeDistricts(rng, *perState)

	totals := make(map[string]int)
	for d := range *days {
		date := first.AddDate(0, 0, d).Format(time.DateOnly)
		data, err := renderReport(rng, date, districts)
		if err != nil {
			return fmt.Errorf("render %s: %w", date, err)
		}

		if !domain.IsExcludedDate(date) {
			rows, err := domain.ParseReport(bytes.NewReader(data), date)
			if err != nil {
				return fmt.Errorf("generated report %s does not parse: %w", date, err)
			}
			for _, r := range rows {
				code, _ := domain.StateCode(r.StateID)
				totals[code] += r.Counts.CovidCases
			}
		}

		path := filepath.Join(*out, date+".csv")
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return err
		}
	}
	log.Printf("wrote %d reports for %d districts to %s", *days, len(districts), *out)

	printStats(totals)
	return nil
}

func makeDistricts(rng *rand.Rand, perState int) []district {
	var out []district
	for _, stateID := range domain.StateIDs() {
		if stateID == domain.NationwideID {
			continue
		}
		for i := range perState {
			out = append(out, district{
				stateID: stateID,
				id:      fmt.Sprintf("%s%03d", stateID, i+1),
				beds:    20 + rng.IntN(400),
				sites:   1 + rng.IntN(6),
			})
		}
	}
	return out
}

// layoutFor picks the header DIVI used on date.
func layoutFor(date string) []string {
	switch {
	case domain.IsExcludedDate(date):
		return headerCounty
	case date < "2020-04-28":
		return headerApr26
	case date < "2020-06-28":
		return headerApr28
	default:
		return headerJun28
	}
}

func renderReport(rng *rand.Rand, date string, districts []district) ([]byte, error) {
	header := layoutFor(date)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	stamp := date + " 12:15:00"
	for _, d := range districts {
		occupied := rng.IntN(d.beds + 1)
		cases := rng.IntN(occupied/4 + 1)
		ventilated := rng.IntN(cases + 1)
		// Bed counts were published as floats for a while.
		beds := func(n int) string {
			if date >= "2020-05-01" && date < "2020-06-01" {
				return strconv.Itoa(n) + ".0"
			}
			return strconv.Itoa(n)
		}

		fields := map[string]string{
			"bundesland":                         d.stateID,
			"kreis":                              "Kreis " + d.id,
			"gemeindeschluessel":                 d.id,
			"anzahl_meldebereiche":               strconv.Itoa(d.sites + rng.IntN(2)),
			"faelle_covid_aktuell":               strconv.Itoa(cases),
			"faelle_covid_aktuell_im_bundesland": strconv.Itoa(cases),
			"faelle_covid_aktuell_beatmet":       strconv.Itoa(ventilated),
			"anzahl_standorte":                   strconv.Itoa(d.sites),
			"betten_frei":                        beds(d.beds - occupied),
			"betten_belegt":                      beds(occupied),
			"daten_stand":                        stamp,
		}
		row := make([]string, len(header))
		for i, col := range header {
			row[i] = fields[col]
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func printStats(totals map[string]int) {
	fmt.Println("\n=== Summed covid cases per region (excluded dates skipped) ===")
	for _, code := range domain.RegionCodes() {
		if code == domain.NationwideID {
			continue
		}
		fmt.Printf("  %-3s %8d\n", code, totals[code])
	}
}

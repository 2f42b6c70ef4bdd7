package domain

import "strconv"

// Counts holds the additive raw fields of one report row. It is the only
// shape that is ever summed across districts; percentages are derived from
// the sums afterwards by NewDailyRecord.
type Counts struct {
	ReportingAreas  int
	CovidCases      int
	CovidVentilated int
	Sites           int
	BedsFree        int
	BedsOccupied    int
}

// Add accumulates other into c field by field.
func (c *Counts) Add(other Counts) {
	c.ReportingAreas += other.ReportingAreas
	c.CovidCases += other.CovidCases
	c.CovidVentilated += other.CovidVentilated
	c.Sites += other.Sites
	c.BedsFree += other.BedsFree
	c.BedsOccupied += other.BedsOccupied
}

// BedsTotal is free plus occupied beds.
func (c Counts) BedsTotal() int {
	return c.BedsFree + c.BedsOccupied
}

// DailyRecord is the canonical per-day record for a district or a finalized
// region. JSON names follow the upstream DIVI column names, declared in
// sorted key order, because the plotting scripts read them.
type DailyRecord struct {
	Date            string   `json:"Date"`
	ReportingAreas  int      `json:"anzahl_meldebereiche"`
	Sites           int      `json:"anzahl_standorte"`
	BedsOccupied    int      `json:"betten_belegt"`
	OccupiedPct     *float64 `json:"betten_belegt_proz"`
	BedsFree        int      `json:"betten_frei"`
	BedsTotal       int      `json:"betten_ges"`
	CovidCases      int      `json:"faelle_covid_aktuell"`
	CovidVentilated int      `json:"faelle_covid_aktuell_beatmet"`
	VentilatedPct   float64  `json:"faelle_covid_aktuell_beatmet_proz"`
	CovidSharePct   *float64 `json:"faelle_covid_aktuell_proz"`
}

// NewDailyRecord derives the percentage fields from raw counts:
//   - occupancy and covid share are nil when there are no beds at all
//   - ventilated share is 0 when there are no covid cases
//
// The asymmetry between nil and 0 matches the published series.
func NewDailyRecord(date string, c Counts) DailyRecord {
	r := DailyRecord{
		Date:            date,
		ReportingAreas:  c.ReportingAreas,
		Sites:           c.Sites,
		BedsOccupied:    c.BedsOccupied,
		BedsFree:        c.BedsFree,
		BedsTotal:       c.BedsTotal(),
		CovidCases:      c.CovidCases,
		CovidVentilated: c.CovidVentilated,
	}
	if r.BedsTotal > 0 {
		occupied := Percent(c.BedsOccupied, r.BedsTotal)
		share := Percent(c.CovidCases, r.BedsTotal)
		r.OccupiedPct = &occupied
		r.CovidSharePct = &share
	}
	if c.CovidCases > 0 {
		r.VentilatedPct = Percent(c.CovidVentilated, c.CovidCases)
	}
	return r
}

// Counts reduces the record to its additive raw fields.
func (r DailyRecord) Counts() Counts {
	return Counts{
		ReportingAreas:  r.ReportingAreas,
		CovidCases:      r.CovidCases,
		CovidVentilated: r.CovidVentilated,
		Sites:           r.Sites,
		BedsFree:        r.BedsFree,
		BedsOccupied:    r.BedsOccupied,
	}
}

// Percent returns 100*num/den rounded to one decimal place. The float64
// quotient is rounded exactly, ties to even, so 12.25 becomes 12.2 and
// 0.15 (stored as 0.1499...) becomes 0.1. den must be positive.
func Percent(num, den int) float64 {
	v := 100 * float64(num) / float64(den)
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return f
}

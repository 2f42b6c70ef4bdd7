package domain

// RegionAccumulator sums district counts per date for one state (or for the
// whole country). Dates keep first-seen order.
type RegionAccumulator struct {
	dates []string
	sums  map[string]*Counts
}

// NewRegionAccumulator returns an empty accumulator.
func NewRegionAccumulator() *RegionAccumulator {
	return &RegionAccumulator{sums: make(map[string]*Counts)}
}

// Add seeds the accumulator for date on first sight and adds in place after.
func (a *RegionAccumulator) Add(date string, c Counts) {
	sum, ok := a.sums[date]
	if !ok {
		sum = &Counts{}
		a.sums[date] = sum
		a.dates = append(a.dates, date)
	}
	sum.Add(c)
}

// Totals returns the summed counts for date.
func (a *RegionAccumulator) Totals(date string) (Counts, bool) {
	sum, ok := a.sums[date]
	if !ok {
		return Counts{}, false
	}
	return *sum, true
}

// Dates returns the accumulated dates in first-seen order.
func (a *RegionAccumulator) Dates() []string {
	out := make([]string, len(a.dates))
	copy(out, a.dates)
	return out
}

// Finalize derives percentages from each date's summed counts.
func (a *RegionAccumulator) Finalize() []DailyRecord {
	out := make([]DailyRecord, 0, len(a.dates))
	for _, date := range a.dates {
		out = append(out, NewDailyRecord(date, *a.sums[date]))
	}
	return out
}

// RegionDay is one finalized region record tagged with its region code, the
// unit published to the message sink and the history database.
type RegionDay struct {
	Region string `json:"region"`
	DailyRecord
}

// Flatten lists every region record, regions in state table order.
func Flatten(regions map[string][]DailyRecord) []RegionDay {
	var out []RegionDay
	for _, id := range stateIDs {
		code := stateCodes[id]
		for _, rec := range regions[code] {
			out = append(out, RegionDay{Region: code, DailyRecord: rec})
		}
	}
	return out
}

package domain

import (
	"fmt"
	"sort"
)

// DistrictRow is one parsed report row before aggregation.
type DistrictRow struct {
	Date       string
	StateID    string
	DistrictID string
	Counts     Counts
}

// DistrictSeries maps a gemeindeschluessel to its records in aggregation order.
type DistrictSeries map[string][]DailyRecord

// IDs returns the district ids sorted.
func (s DistrictSeries) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Aggregate is the output of one full aggregation pass.
type Aggregate struct {
	Districts DistrictSeries
	// Regions maps every state code, plus NationwideID, to its finalized
	// records. States without data map to an empty slice.
	Regions map[string][]DailyRecord
}

// Aggregator folds district rows into district series and per-state and
// nationwide accumulators.
type Aggregator struct {
	districts DistrictSeries
	states    map[string]*RegionAccumulator
	rows      int
}

// NewAggregator returns an Aggregator with an accumulator for every state.
func NewAggregator() *Aggregator {
	states := make(map[string]*RegionAccumulator, len(stateIDs))
	for _, id := range stateIDs {
		states[id] = NewRegionAccumulator()
	}
	return &Aggregator{
		districts: make(DistrictSeries),
		states:    states,
	}
}

// Add records row in its district series and folds its counts into the
// row's state and into the nationwide total.
func (a *Aggregator) Add(row DistrictRow) error {
	stateID := NormalizeStateID(row.StateID)
	state, ok := a.states[stateID]
	if !ok || stateID == NationwideID {
		return fmt.Errorf("%w: unknown bundesland %q for district %q on %s",
			ErrMalformedRow, row.StateID, row.DistrictID, row.Date)
	}

	a.districts[row.DistrictID] = append(a.districts[row.DistrictID], NewDailyRecord(row.Date, row.Counts))
	state.Add(row.Date, row.Counts)
	a.states[NationwideID].Add(row.Date, row.Counts)
	a.rows++
	return nil
}

// Rows returns the number of rows added so far.
func (a *Aggregator) Rows() int {
	return a.rows
}

// State exposes the accumulator for a state id, mainly for inspection.
func (a *Aggregator) State(id string) (*RegionAccumulator, bool) {
	acc, ok := a.states[NormalizeStateID(id)]
	return acc, ok
}

// Result finalizes every accumulator and translates state ids to codes.
func (a *Aggregator) Result() Aggregate {
	regions := make(map[string][]DailyRecord, len(a.states))
	for id, acc := range a.states {
		regions[stateCodes[id]] = acc.Finalize()
	}
	return Aggregate{Districts: a.districts, Regions: regions}
}

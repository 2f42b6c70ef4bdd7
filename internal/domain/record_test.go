package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDay1 = "2020-06-25"
	testDay2 = "2020-06-26"
)

func TestNewDailyRecord(t *testing.T) {
	t.Run("derived percentages", func(t *testing.T) {
		rec := NewDailyRecord(testDay1, Counts{
			ReportingAreas:  3,
			CovidCases:      10,
			CovidVentilated: 2,
			Sites:           2,
			BedsFree:        100,
			BedsOccupied:    50,
		})

		assert.Equal(t, testDay1, rec.Date)
		assert.Equal(t, 150, rec.BedsTotal)
		require.NotNil(t, rec.OccupiedPct)
		assert.Equal(t, 33.3, *rec.OccupiedPct)
		require.NotNil(t, rec.CovidSharePct)
		assert.Equal(t, 6.7, *rec.CovidSharePct)
		assert.Equal(t, 20.0, rec.VentilatedPct)
	})

	t.Run("no beds yields nil percentages", func(t *testing.T) {
		rec := NewDailyRecord(testDay1, Counts{CovidCases: 4, CovidVentilated: 1})

		assert.Equal(t, 0, rec.BedsTotal)
		assert.Nil(t, rec.OccupiedPct)
		assert.Nil(t, rec.CovidSharePct)
		assert.Equal(t, 25.0, rec.VentilatedPct)
	})

	t.Run("no cases yields zero ventilated share", func(t *testing.T) {
		rec := NewDailyRecord(testDay1, Counts{CovidVentilated: 7, BedsFree: 5, BedsOccupied: 5})

		assert.Equal(t, 0.0, rec.VentilatedPct)
		require.NotNil(t, rec.OccupiedPct)
		assert.Equal(t, 50.0, *rec.OccupiedPct)
	})

	t.Run("counts round trip", func(t *testing.T) {
		c := Counts{ReportingAreas: 1, CovidCases: 2, CovidVentilated: 3, Sites: 4, BedsFree: 5, BedsOccupied: 6}
		assert.Equal(t, c, NewDailyRecord(testDay2, c).Counts())
	})
}

func TestPercent(t *testing.T) {
	cases := []struct {
		num, den int
		want     float64
	}{
		{50, 150, 33.3},
		{60, 150, 40.0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{49, 400, 12.2}, // exact tie rounds to even
		{3, 2000, 0.1},  // 0.15 is stored just below the tie
		{1, 400, 0.2},
		{51, 400, 12.8},
		{0, 7, 0},
		{7, 7, 100},
		{30, 20, 150},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Percent(tc.num, tc.den), "%d/%d", tc.num, tc.den)
	}
}

func TestCountsAdd(t *testing.T) {
	sum := Counts{BedsFree: 1}
	sum.Add(Counts{ReportingAreas: 1, CovidCases: 2, CovidVentilated: 3, Sites: 4, BedsFree: 5, BedsOccupied: 6})

	assert.Equal(t, Counts{ReportingAreas: 1, CovidCases: 2, CovidVentilated: 3, Sites: 4, BedsFree: 6, BedsOccupied: 6}, sum)
	assert.Equal(t, 12, sum.BedsTotal())
}

package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "divi.sqlite"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func aggregate(t *testing.T, rows ...domain.DistrictRow) domain.Aggregate {
	t.Helper()
	agg := domain.NewAggregator()
	for _, r := range rows {
		require.NoError(t, agg.Add(r))
	}
	return agg.Result()
}

func TestStore_SaveAggregate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	assert.Equal(t, "sqlite", s.Name())

	agg := aggregate(t,
		domain.DistrictRow{Date: "2020-06-25", StateID: "05", DistrictID: "05315", Counts: domain.Counts{CovidCases: 4, CovidVentilated: 2, BedsFree: 20, BedsOccupied: 10}},
		domain.DistrictRow{Date: "2020-06-26", StateID: "05", DistrictID: "05315", Counts: domain.Counts{ReportingAreas: 1}},
	)
	require.NoError(t, s.Load(ctx, agg))

	district, err := s.DistrictRecords(ctx, "05315")
	require.NoError(t, err)
	if diff := cmp.Diff(agg.Districts["05315"], district); diff != "" {
		t.Errorf("district mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, district[1].OccupiedPct)

	region, err := s.RegionRecords(ctx, "NW")
	require.NoError(t, err)
	if diff := cmp.Diff(agg.Regions["NW"], region); diff != "" {
		t.Errorf("region mismatch (-want +got):\n%s", diff)
	}

	total, err := s.RegionRecords(ctx, domain.NationwideID)
	require.NoError(t, err)
	assert.Len(t, total, 2)

	empty, err := s.RegionRecords(ctx, "BY")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_SaveAggregateReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := aggregate(t,
		domain.DistrictRow{Date: "2020-06-25", StateID: "05", DistrictID: "05315", Counts: domain.Counts{BedsFree: 1}},
		domain.DistrictRow{Date: "2020-06-25", StateID: "09", DistrictID: "09162", Counts: domain.Counts{BedsFree: 1}},
	)
	require.NoError(t, s.SaveAggregate(ctx, first))

	second := aggregate(t,
		domain.DistrictRow{Date: "2020-06-26", StateID: "05", DistrictID: "05315", Counts: domain.Counts{BedsFree: 3}},
	)
	require.NoError(t, s.SaveAggregate(ctx, second))

	gone, err := s.DistrictRecords(ctx, "09162")
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := s.DistrictRecords(ctx, "05315")
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "2020-06-26", kept[0].Date)
	assert.Equal(t, 3, kept[0].BedsTotal)

	by, err := s.RegionRecords(ctx, "BY")
	require.NoError(t, err)
	assert.Empty(t, by)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "divi.sqlite")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	s, err := Open(ctx, path, logger)
	require.NoError(t, err)
	require.NoError(t, s.SaveAggregate(ctx, aggregate(t,
		domain.DistrictRow{Date: "2020-06-25", StateID: "11", DistrictID: "11000", Counts: domain.Counts{BedsOccupied: 5}},
	)))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, logger)
	require.NoError(t, err)
	defer s.Close()
	recs, err := s.RegionRecords(ctx, "BE")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 5, recs[0].BedsOccupied)
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
	"github.com/couchcryptid/divi-occupancy-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (r *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func (r *recordingWriter) Close() error {
	r.closed = true
	return nil
}

func testWriter(inner messageWriter) (*Writer, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return &Writer{writer: inner, metrics: m, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}, m
}

func TestSerializeToMessage(t *testing.T) {
	day := domain.RegionDay{
		Region:      "NW",
		DailyRecord: domain.NewDailyRecord("2020-06-25", domain.Counts{CovidCases: 4, CovidVentilated: 2, BedsFree: 20, BedsOccupied: 10}),
	}

	msg, err := serializeToMessage(day)
	require.NoError(t, err)

	assert.Equal(t, []byte("NW|2020-06-25"), msg.Key)
	assert.Contains(t, string(msg.Value), `"region":"NW"`)
	assert.Contains(t, string(msg.Value), `"Date":"2020-06-25"`)
	assert.Contains(t, string(msg.Value), `"betten_belegt_proz":33.3`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "region", msg.Headers[0].Key)
	assert.Equal(t, []byte("NW"), msg.Headers[0].Value)
	assert.Equal(t, "date", msg.Headers[1].Key)
	assert.Equal(t, []byte("2020-06-25"), msg.Headers[1].Value)

	var back domain.RegionDay
	require.NoError(t, json.Unmarshal(msg.Value, &back))
	assert.Equal(t, day, back)
}

func TestWriter_Load(t *testing.T) {
	agg := domain.NewAggregator()
	require.NoError(t, agg.Add(domain.DistrictRow{Date: "2020-06-25", StateID: "05", DistrictID: "05315", Counts: domain.Counts{BedsFree: 1}}))
	require.NoError(t, agg.Add(domain.DistrictRow{Date: "2020-06-25", StateID: "09", DistrictID: "09162", Counts: domain.Counts{BedsFree: 2}}))

	rec := &recordingWriter{}
	w, m := testWriter(rec)
	assert.Equal(t, "kafka", w.Name())
	require.NoError(t, w.Load(context.Background(), agg.Result()))

	require.Len(t, rec.msgs, 3)
	var keys []string
	for _, msg := range rec.msgs {
		keys = append(keys, string(msg.Key))
	}
	assert.Equal(t, []string{"NW|2020-06-25", "BY|2020-06-25", "DE-total|2020-06-25"}, keys)
	assert.InDelta(t, 3.0, testutil.ToFloat64(m.RecordsPublished), 0.0001)
}

func TestWriter_LoadBatchEmpty(t *testing.T) {
	rec := &recordingWriter{err: errors.New("must not be called")}
	w, _ := testWriter(rec)
	require.NoError(t, w.LoadBatch(context.Background(), nil))
}

func TestWriter_LoadBatchError(t *testing.T) {
	rec := &recordingWriter{err: errors.New("broker down")}
	w, m := testWriter(rec)

	err := w.LoadBatch(context.Background(), []domain.RegionDay{{Region: "HH", DailyRecord: domain.NewDailyRecord("2020-06-25", domain.Counts{})}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.InDelta(t, 0.0, testutil.ToFloat64(m.RecordsPublished), 0.0001)
}

func TestWriter_Close(t *testing.T) {
	rec := &recordingWriter{}
	w, _ := testWriter(rec)
	require.NoError(t, w.Close())
	assert.True(t, rec.closed)
}

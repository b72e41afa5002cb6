package kafka

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/export"
	"github.com/couchcryptid/epi-report-service/internal/observability"
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

func day(d int) time.Time {
	return time.Date(2020, time.April, d, 0, 0, 0, 0, time.UTC)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2020, 4, 26, 15, 10, 0, 0, time.UTC)
	row := export.Row{Name: "Moscow", Date: day(3), Values: map[string]float64{domain.ColConfirmedChange: 30}}

	msg, err := serializeToMessage(row, domain.ColConfirmedChange, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("Moscow"), msg.Key)
	assert.JSONEq(t, `{"name":"Moscow","date":"2020-04-03","values":{"Confirmed_Change":30}}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "column", msg.Headers[0].Key)
	assert.Equal(t, []byte(domain.ColConfirmedChange), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_InfinityIsNull(t *testing.T) {
	row := export.Row{Name: "Italy", Date: day(2), Values: map[string]float64{
		domain.ColConfirmed:     10,
		domain.ColTimeToResolve: math.Inf(1),
	}}

	msg, err := serializeToMessage(row, "", day(6))
	require.NoError(t, err)

	assert.JSONEq(t, `{"name":"Italy","date":"2020-04-02","values":{"Confirmed":10,"Time_To_Resolve":null}}`, string(msg.Value))
}

func TestPublish_FullTableWithUnresolvedDays(t *testing.T) {
	rec := &recordingWriter{}
	w := &Writer{writer: rec, logger: slog.Default()}
	tbl := &domain.LongTable{
		Columns: []domain.ColumnSpec{
			{Name: domain.ColConfirmed, Kind: domain.KindInt},
			{Name: domain.ColTimeToResolve, Kind: domain.KindFloat},
		},
		Rows: []domain.LongRow{
			{Name: "Italy", Date: day(1), Values: []float64{5, 14.5}},
			{Name: "Italy", Date: day(2), Values: []float64{10, math.Inf(1)}},
		},
	}

	n, err := w.Publish(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	require.Len(t, rec.msgs, 2)
	assert.Contains(t, string(rec.msgs[1].Value), `"Time_To_Resolve":null`)
}

func TestPublish_WideSkipsUnobservedCells(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2020, 4, 6, 8, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	rec := &recordingWriter{}
	w := &Writer{writer: rec, metrics: observability.NewMetricsForTesting(), logger: slog.Default()}
	tbl := &domain.WideTable{
		Column:   domain.ColConfirmedChange,
		Kind:     domain.KindInt,
		Index:    []time.Time{day(1), day(2)},
		Columns:  []string{"Moscow", "SPB"},
		Values:   map[string][]float64{"Moscow": {10, 20}, "SPB": {0, 1}},
		Observed: map[string][]bool{"Moscow": {true, true}, "SPB": {false, true}},
	}

	n, err := w.Publish(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	require.Len(t, rec.msgs, 3)
	assert.Equal(t, []byte("SPB"), rec.msgs[2].Key)
	assert.Equal(t, []byte("2020-04-06T08:00:00Z"), rec.msgs[2].Headers[1].Value)
}

func TestPublish_LongHasNoColumnHeader(t *testing.T) {
	rec := &recordingWriter{}
	w := &Writer{writer: rec, logger: slog.Default()}
	tbl := &domain.LongTable{
		Columns: []domain.ColumnSpec{{Name: domain.ColRt, Kind: domain.KindFloat}},
		Rows:    []domain.LongRow{{Name: "Austria", Date: day(1), Values: []float64{1.1}}},
	}

	_, err := w.Publish(context.Background(), tbl)
	require.NoError(t, err)

	require.Len(t, rec.msgs, 1)
	assert.Empty(t, rec.msgs[0].Headers[0].Value)
	assert.JSONEq(t, `{"name":"Austria","date":"2020-04-01","values":{"Rt":1.1}}`, string(rec.msgs[0].Value))
}

func TestPublish_EmptyTableWritesNothing(t *testing.T) {
	rec := &recordingWriter{err: errors.New("must not be called")}
	w := &Writer{writer: rec, logger: slog.Default()}

	n, err := w.Publish(context.Background(), &domain.LongTable{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPublish_WriteError(t *testing.T) {
	rec := &recordingWriter{err: errors.New("broker down")}
	w := &Writer{writer: rec, logger: slog.Default()}
	tbl := &domain.LongTable{
		Columns: []domain.ColumnSpec{{Name: domain.ColRt, Kind: domain.KindFloat}},
		Rows:    []domain.LongRow{{Name: "Austria", Date: day(1), Values: []float64{1.1}}},
	}

	_, err := w.Publish(context.Background(), tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestClose(t *testing.T) {
	rec := &recordingWriter{}
	w := &Writer{writer: rec, logger: slog.Default()}

	require.NoError(t, w.Close())
	assert.True(t, rec.closed)
}

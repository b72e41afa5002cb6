package export

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/epi-report-service/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2020, time.April, d, 0, 0, 0, 0, time.UTC)
}

func wideFixture() *domain.WideTable {
	return &domain.WideTable{
		Column:   domain.ColConfirmedChange,
		Kind:     domain.KindInt,
		Index:    []time.Time{day(1), day(2)},
		Columns:  []string{"Moscow", "SPB"},
		Values:   map[string][]float64{"Moscow": {10, 20}, "SPB": {0, 3}},
		Observed: map[string][]bool{"Moscow": {true, true}, "SPB": {false, true}},
	}
}

func TestWriteCSV_Wide(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, wideFixture()))

	assert.Equal(t, "Date,Moscow,SPB\n01-04-2020,10,0\n02-04-2020,20,3\n", buf.String())
}

func TestWriteCSV_Long(t *testing.T) {
	tbl := &domain.LongTable{
		Columns: []domain.ColumnSpec{{Name: domain.ColConfirmed, Kind: domain.KindInt}, {Name: domain.ColRt, Kind: domain.KindFloat}},
		Rows: []domain.LongRow{
			{Name: "Moscow", Date: day(1), Values: []float64{10, 1.25}},
			{Name: "SPB", Date: day(3), Values: []float64{1, 0}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))

	assert.Equal(t, "Name,Date,Confirmed,Rt\nMoscow,01-04-2020,10,1.25\nSPB,03-04-2020,1,0\n", buf.String())
}

func TestRows_WideSkipsFilledCells(t *testing.T) {
	rows := Rows(wideFixture())

	require.Len(t, rows, 3)
	assert.Equal(t, Row{Name: "SPB", Date: day(2), Values: map[string]float64{domain.ColConfirmedChange: 3}}, rows[2])
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "12", FormatValue(12, domain.KindInt))
	assert.Equal(t, "0.125", FormatValue(0.125, domain.KindFloat))
	assert.Equal(t, "Infinity", FormatValue(math.Inf(1), domain.KindFloat))
	assert.Equal(t, "-Infinity", FormatValue(math.Inf(-1), domain.KindFloat))
	assert.Equal(t, "NaN", FormatValue(math.NaN(), domain.KindFloat))
}

func TestFloat_NonFiniteEncodesAsNull(t *testing.T) {
	data, err := json.Marshal(map[string]any{
		"values":  Floats([]float64{5, math.Inf(1), math.NaN(), -0.5}),
		"cells":   FloatMap(map[string]float64{"Time_To_Resolve": math.Inf(-1)}),
		"columns": FloatColumns(map[string][]float64{"Italy": {math.Inf(1)}}),
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"values": [5, null, null, -0.5],
		"cells": {"Time_To_Resolve": null},
		"columns": {"Italy": [null]}
	}`, string(data))
}

func TestFloats_NeverNil(t *testing.T) {
	assert.NotNil(t, Floats(nil))
}

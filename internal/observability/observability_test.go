package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", "warn")

	logger.Info("dropped")
	logger.Warn("kept", "entity", "Moscow")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "Moscow", line["entity"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "TEXT", "debug")

	logger.Debug("report loaded", "rows", 3)

	assert.Contains(t, buf.String(), "msg=\"report loaded\"")
	assert.Contains(t, buf.String(), "rows=3")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestMetricsRegisterOnFreshRegistry(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(m.ReportsLoaded))
	require.NoError(t, reg.Register(m.ReportLoadErrors))

	m.ReportsLoaded.Inc()
	m.ReportLoadErrors.WithLabelValues("malformed").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			values[f.GetName()] += metric.GetCounter().GetValue()
		}
	}
	assert.InDelta(t, 1, values["epi_reports_reports_loaded_total"], 0)
	assert.InDelta(t, 1, values["epi_reports_report_load_errors_total"], 0)
}

package sqlx

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics
	assert.NotPanics(t, func() {
		m.recordQueryDuration(context.Background(), time.Second, "SELECT", nil, nil)
		m.recordAnnotation(context.Background(), nil)
	})
}

func TestMetrics_Statements(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	db, mock := newMockDB(t,
		WithApplication("blog"),
		WithMeterProvider(mp),
		WithDBSystem("sqlite"),
	)
	mock.ExpectExec("DELETE FROM posts /*app=blog*/").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM posts /*app=blog*/").WillReturnError(assert.AnError)

	_, err := db.ExecContext(context.Background(), "DELETE FROM posts")
	require.NoError(t, err)
	_, err = db.ExecContext(context.Background(), "DELETE FROM posts")
	require.Error(t, err)

	got := collect(t, reader)

	annotated, ok := got["db.client.annotated_statements"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, annotated.DataPoints, 1)
	assert.Equal(t, int64(2), annotated.DataPoints[0].Value)

	duration, ok := got["db.client.operation.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	statuses := map[string]uint64{}
	for _, dp := range duration.DataPoints {
		status, _ := dp.Attributes.Value("status")
		statuses[status.AsString()] += dp.Count
	}
	assert.Equal(t, map[string]uint64{"ok": 1, "error": 1}, statuses)
}

func TestRecordPoolMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	db, _ := newMockDB(t, WithDBSystem("sqlite"))
	db.SetMaxOpenConns(3)

	require.NoError(t, RecordPoolMetrics(db, mp.Meter("test"), attribute.String("pool", "main")))

	gauge, ok := collect(t, reader)["db.client.connections.max"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(3), gauge.DataPoints[0].Value)

	system, _ := gauge.DataPoints[0].Attributes.Value("db.system")
	assert.Equal(t, "sqlite", system.AsString())
}

package sql

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

func TestNewMetrics(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	m, err := newMetrics(mp.Meter("test"))
	require.NoError(t, err)
	assert.NotNil(t, m.queryDuration)
	assert.NotNil(t, m.annotatedStatements)
}

func TestRecordQueryDuration(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		err        error
		wantStatus string
	}{
		{
			name:       "given successful query, then records with ok status",
			operation:  "SELECT",
			wantStatus: "ok",
		},
		{
			name:       "given failed query, then records with error status",
			operation:  "INSERT",
			err:        assert.AnError,
			wantStatus: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := sdkmetric.NewManualReader()
			mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
			defer mp.Shutdown(context.Background())

			m, err := newMetrics(mp.Meter("test"))
			require.NoError(t, err)

			m.recordQueryDuration(context.Background(), 10*time.Millisecond, tt.operation,
				[]attribute.KeyValue{attribute.String("db.system", "sqlite")}, tt.err)

			got, ok := collect(t, reader)["db.client.operation.duration"]
			require.True(t, ok)
			hist, ok := got.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			require.Len(t, hist.DataPoints, 1)

			status, _ := hist.DataPoints[0].Attributes.Value("status")
			assert.Equal(t, tt.wantStatus, status.AsString())
			op, _ := hist.DataPoints[0].Attributes.Value("db.operation")
			assert.Equal(t, tt.operation, op.AsString())
		})
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Run("given nil metrics, then does not panic", func(t *testing.T) {
		var m *metrics
		assert.NotPanics(t, func() {
			m.recordQueryDuration(context.Background(), time.Second, "SELECT", nil, nil)
			m.recordAnnotation(context.Background(), nil)
		})
	})

	t.Run("given nil instruments, then does not panic", func(t *testing.T) {
		m := &metrics{}
		assert.NotPanics(t, func() {
			m.recordQueryDuration(context.Background(), time.Second, "SELECT", nil, nil)
			m.recordAnnotation(context.Background(), nil)
		})
	})
}

func TestAnnotatedStatementsCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	db, mock := newMockDB(t, WithApplication("blog"), WithMeterProvider(mp))
	mock.ExpectExec("select 1 /*app=blog*/").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("select 2 /*app=blog*/").WillReturnResult(sqlmock.NewResult(0, 0))

	for _, q := range []string{"select 1", "select 2"} {
		_, err := db.ExecContext(context.Background(), q)
		require.NoError(t, err)
	}

	got, ok := collect(t, reader)["db.client.annotated_statements"]
	require.True(t, ok)
	sum, ok := got.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}

func TestRecordPoolMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	db, _ := newMockDB(t, WithDBSystem("sqlite"))
	db.SetMaxOpenConns(5)

	require.NoError(t, RecordPoolMetrics(db, mp.Meter("test"), attribute.String("pool", "main")))

	got, ok := collect(t, reader)["db.client.connections.max"]
	require.True(t, ok)
	gauge, ok := got.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(5), gauge.DataPoints[0].Value)

	system, _ := gauge.DataPoints[0].Attributes.Value("db.system")
	assert.Equal(t, "sqlite", system.AsString())
	pool, _ := gauge.DataPoints[0].Attributes.Value("pool")
	assert.Equal(t, "main", pool.AsString())
}

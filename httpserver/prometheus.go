package httpserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusHandler returns an http.Handler for the /metrics endpoint backed
// by the default registry, where the OpenTelemetry Prometheus exporter
// publishes the sql and sqlx metrics (query duration, annotated statement
// count, pool usage).
//
//	mux.Handle("/metrics", httpserver.PrometheusHandler())
func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// PrometheusHandlerFor returns a handler serving the metrics gathered by g.
// A nil g uses the default gatherer.
//
//	reg := prometheus.NewRegistry()
//	mux.Handle("/metrics", httpserver.PrometheusHandlerFor(reg, promhttp.HandlerOpts{}))
func PrometheusHandlerFor(g prometheus.Gatherer, opts promhttp.HandlerOpts) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, opts)
}

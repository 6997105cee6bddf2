// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reload results used as the catalog_reloads_total label.
const (
	ReloadOK     = "ok"
	ReloadFailed = "failed"
)

// Metrics holds the gitguide collectors on an isolated registry, so two
// servers in one process (tests) never collide.
type Metrics struct {
	Registry *prometheus.Registry

	PageViewsTotal      *prometheus.CounterVec
	RedirectsTotal      prometheus.Counter
	LiveSessions        prometheus.Gauge
	CatalogReloadsTotal *prometheus.CounterVec
	TOCHeadings         prometheus.Histogram
	BuildInfo           *prometheus.GaugeVec
}

// New creates a Metrics instance with every collector registered.
func New(version, goVersion string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		PageViewsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gitguide_page_views_total",
				Help: "Total number of article pages served.",
			},
			[]string{"id"},
		),
		RedirectsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gitguide_redirects_total",
				Help: "Requests for unknown articles redirected to the default route.",
			},
		),
		LiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gitguide_live_sessions",
				Help: "Number of connected live sessions.",
			},
		),
		CatalogReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gitguide_catalog_reloads_total",
				Help: "Catalog reloads triggered by content changes.",
			},
			[]string{"result"},
		),
		TOCHeadings: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gitguide_toc_headings",
				Help:    "Number of headings extracted per page.",
				Buckets: prometheus.LinearBuckets(0, 4, 8),
			},
		),
		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gitguide_info",
				Help: "Build information.",
			},
			[]string{"version", "go_version"},
		),
	}

	reg.MustRegister(
		m.PageViewsTotal,
		m.RedirectsTotal,
		m.LiveSessions,
		m.CatalogReloadsTotal,
		m.TOCHeadings,
		m.BuildInfo,
	)
	m.BuildInfo.WithLabelValues(version, goVersion).Set(1)

	return m
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// The helpers below accept a nil receiver so callers can run without
// metrics.

func (m *Metrics) PageViewed(id string) {
	if m != nil {
		m.PageViewsTotal.WithLabelValues(id).Inc()
	}
}

func (m *Metrics) Redirected() {
	if m != nil {
		m.RedirectsTotal.Inc()
	}
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.LiveSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.LiveSessions.Dec()
	}
}

func (m *Metrics) Reloaded(err error) {
	if m == nil {
		return
	}
	result := ReloadOK
	if err != nil {
		result = ReloadFailed
	}
	m.CatalogReloadsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) HeadingsExtracted(n int) {
	if m != nil {
		m.TOCHeadings.Observe(float64(n))
	}
}

package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	anchors      *prom.CounterVec
	pages        *prom.CounterVec
	pageDuration prom.Histogram
	runDuration  prom.Histogram
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		anchors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "extlinks",
			Name:      "anchors_total",
			Help:      "Marked anchors seen, by classification",
		}, []string{"classification"}),
		pages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "extlinks",
			Name:      "pages_total",
			Help:      "Pages processed, by outcome",
		}, []string{"outcome"}),
		pageDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "extlinks",
			Name:      "page_duration_seconds",
			Help:      "Time to parse, annotate and write a single page",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "extlinks",
			Name:      "run_duration_seconds",
			Help:      "Duration of a full site annotation run",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.anchors, pr.pages, pr.pageDuration, pr.runDuration)
	return pr
}

func (p *PrometheusRecorder) IncAnchors(classification string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.anchors.WithLabelValues(classification).Add(float64(n))
}

func (p *PrometheusRecorder) IncPage(outcome PageOutcome) {
	if p == nil {
		return
	}
	p.pages.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObservePageDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.pageDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

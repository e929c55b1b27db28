package driver

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what a run did. A nil *Metrics records nothing.
type Metrics struct {
	reg *prometheus.Registry

	steps     prometheus.Counter
	verdicts  *prometheus.CounterVec
	cacheHits prometheus.Counter
	nodes     prometheus.Gauge
	pct       prometheus.Gauge
}

// NewMetrics returns metrics registered in a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glslreduce_steps_total",
			Help: "Candidates proposed by the reduction plan.",
		}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glslreduce_verdicts_total",
			Help: "Verdicts on candidates, by outcome.",
		}, []string{"verdict"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glslreduce_cache_hits_total",
			Help: "Candidates judged from the verdict cache.",
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "glslreduce_job_nodes",
			Help: "AST nodes in the current interesting job.",
		}),
		pct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "glslreduce_percentage",
			Help: "Percentage of opportunities the current plan applies.",
		}),
	}
	m.reg.MustRegister(m.steps, m.verdicts, m.cacheHits, m.nodes, m.pct)
	return m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// WriteFile writes the metrics in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}

func (m *Metrics) step(pct int) {
	if m == nil {
		return
	}
	m.steps.Inc()
	m.pct.Set(float64(pct))
}

func (m *Metrics) verdict(interesting, cached bool) {
	if m == nil {
		return
	}
	label := "fail"
	if interesting {
		label = "success"
	}
	m.verdicts.WithLabelValues(label).Inc()
	if cached {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) size(nodes int) {
	if m == nil {
		return
	}
	m.nodes.Set(float64(nodes))
}

package metrics

import (
	"math"

	"github.com/pingcap/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const (
	Namespace = "file2bq"
)

type Metrics struct {
	tablesCreatedCounter *prometheus.CounterVec
	loadedRowsCounter    *prometheus.CounterVec
	loadJobsCounter      *prometheus.CounterVec
	errorCounter         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := Metrics{}
	m.tablesCreatedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tables_created",
			Help:      "number of tables created with an explicit schema",
		}, []string{"table"})
	m.loadedRowsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "loaded_rows",
			Help:      "rows committed by load jobs",
		}, []string{"table"})
	m.loadJobsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "load_jobs",
			Help:      "submitted load jobs",
		}, []string{"table"})
	m.errorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "error_count",
			Help:      "Total error count during loading",
		}, []string{"table"})
	return &m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.tablesCreatedCounter,
		m.loadedRowsCounter,
		m.loadJobsCounter,
		m.errorCounter,
	}
}

func (m *Metrics) RegisterTo(registry prometheus.Registerer) {
	for _, c := range m.collectors() {
		registry.MustRegister(c)
	}
}

func (m *Metrics) UnregisterFrom(registry prometheus.Registerer) {
	for _, c := range m.collectors() {
		registry.Unregister(c)
	}
}

// WriteTextfile registers the metrics to a fresh registry and writes them in
// the text format for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	registry := prometheus.NewRegistry()
	m.RegisterTo(registry)
	return errors.Trace(prometheus.WriteToTextfile(path, registry))
}

// The methods below are no-ops on a nil *Metrics.

func (m *Metrics) AddTableCreated(table string) {
	if m == nil {
		return
	}
	AddCounter(m.tablesCreatedCounter, 1, table)
}

func (m *Metrics) AddLoadedRows(table string, rows int64) {
	if m == nil {
		return
	}
	AddCounter(m.loadedRowsCounter, float64(rows), table)
}

func (m *Metrics) AddLoadJob(table string) {
	if m == nil {
		return
	}
	AddCounter(m.loadJobsCounter, 1, table)
}

func (m *Metrics) AddError(table string) {
	if m == nil {
		return
	}
	AddCounter(m.errorCounter, 1, table)
}

func (m *Metrics) TablesCreated(table string) float64 {
	return ReadCounter(m.tablesCreatedCounter, table)
}

func (m *Metrics) LoadedRows(table string) float64 {
	return ReadCounter(m.loadedRowsCounter, table)
}

func (m *Metrics) LoadJobs(table string) float64 {
	return ReadCounter(m.loadJobsCounter, table)
}

func (m *Metrics) Errors(table string) float64 {
	return ReadCounter(m.errorCounter, table)
}

// ReadCounter reports the current value of the counter for a specific table.
func ReadCounter(counterVec *prometheus.CounterVec, table string) float64 {
	if counterVec == nil {
		return math.NaN()
	}
	counter := counterVec.With(prometheus.Labels{"table": table})
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		return math.NaN()
	}
	return metric.Counter.GetValue()
}

// AddCounter adds a counter for a specific table.
func AddCounter(counterVec *prometheus.CounterVec, v float64, table string) {
	if counterVec == nil {
		return
	}
	counterVec.With(prometheus.Labels{"table": table}).Add(v)
}

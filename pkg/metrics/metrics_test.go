package metrics

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	m := NewMetrics()
	registry := prometheus.NewRegistry()
	m.RegisterTo(registry)
	m.UnregisterFrom(registry)
	m.RegisterTo(registry)
}

func TestReadCounter(t *testing.T) {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "Test counter",
	}, []string{"table"})

	// Add some values to the counter
	counterVec.With(prometheus.Labels{"table": "table1"}).Add(10)
	counterVec.With(prometheus.Labels{"table": "table2"}).Add(20)

	// Test reading the counter for a specific table
	table1Value := ReadCounter(counterVec, "table1")
	require.Equal(t, float64(10), table1Value)

	table2Value := ReadCounter(counterVec, "table2")
	require.Equal(t, float64(20), table2Value)

	// Test reading the counter for a non-existent table
	nonExistentValue := ReadCounter(nil, "non-existent")
	require.True(t, math.IsNaN(nonExistentValue))
}

func TestAddCounter(t *testing.T) {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "Test counter",
	}, []string{"table"})

	// Add a value to the counter for a specific table
	AddCounter(counterVec, 10, "table1")
	metricValue := ReadCounter(counterVec, "table1")
	require.Equal(t, metricValue, float64(10))

	// Add a value to the counter for a non-existent table
	AddCounter(nil, 10, "non-existent")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.AddTableCreated("t")
	m.AddLoadedRows("t", 3)
	m.AddLoadJob("t")
	m.AddError("t")
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.AddLoadJob("transactions")
	m.AddLoadedRows("transactions", 3)
	require.Equal(t, float64(3), m.LoadedRows("transactions"))
	require.Equal(t, float64(1), m.LoadJobs("transactions"))

	path := filepath.Join(t.TempDir(), "file2bq.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `file2bq_loaded_rows{table="transactions"} 3`), string(data))
}

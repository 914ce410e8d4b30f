// Package metrics records operational metrics for the job through a
// pluggable Backend. The default backend discards everything, so call sites
// never need to check whether metrics are configured.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StepTotal       = "datalake_step_total"
	StepDuration    = "datalake_step_duration_seconds"
	RowsTotal       = "datalake_rows_total"
	PartitionsTotal = "datalake_partitions_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is implemented by Prometheus, Datadog and test fakes.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. Passing nil restores the no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error { return current().Flush() }

// RecordStep counts one execution of a pipeline step and observes its
// duration. table may be empty for job-wide steps.
func RecordStep(job, step, table string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "table": table, "status": status}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows adds n rows of the given kind ("read", "written", ...) for table.
func RecordRows(job, table, kind string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(n), Labels{"job": job, "table": table, "kind": kind})
}

// RecordPartitions adds n written partitions for table.
func RecordPartitions(job, table string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(PartitionsTotal, float64(n), Labels{"job": job, "table": table})
}

// Time runs fn and records it as step.
func Time(job, step, table string, fn func() error) error {
	start := time.Now()
	err := fn()
	RecordStep(job, step, table, err, time.Since(start))
	return err
}

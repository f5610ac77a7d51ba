package eigo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordSolve is called after each full-order solve.
	RecordSolve(duration time.Duration, err error)

	// RecordApply is called after each operator application.
	RecordApply(duration time.Duration, err error)

	// RecordExtension is called after each accepted greedy extension step.
	// dofs is the basis size after the step, maxErr the error that
	// triggered it.
	RecordExtension(dofs int, maxErr float64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSolve(time.Duration, error) {}
func (NoopMetricsCollector) RecordApply(time.Duration, error) {}
func (NoopMetricsCollector) RecordExtension(int, float64)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SolveCount      atomic.Int64
	SolveErrors     atomic.Int64
	SolveTotalNanos atomic.Int64
	ApplyCount      atomic.Int64
	ApplyErrors     atomic.Int64
	ApplyTotalNanos atomic.Int64
	ExtensionCount  atomic.Int64
}

func (c *BasicMetricsCollector) RecordSolve(d time.Duration, err error) {
	c.SolveCount.Add(1)
	c.SolveTotalNanos.Add(d.Nanoseconds())
	if err != nil {
		c.SolveErrors.Add(1)
	}
}

func (c *BasicMetricsCollector) RecordApply(d time.Duration, err error) {
	c.ApplyCount.Add(1)
	c.ApplyTotalNanos.Add(d.Nanoseconds())
	if err != nil {
		c.ApplyErrors.Add(1)
	}
}

func (c *BasicMetricsCollector) RecordExtension(int, float64) {
	c.ExtensionCount.Add(1)
}

// MetricsStats is a point-in-time snapshot of a BasicMetricsCollector.
type MetricsStats struct {
	SolveCount    int64
	SolveErrors   int64
	SolveAvgNanos int64
	ApplyCount    int64
	ApplyErrors   int64
	ApplyAvgNanos int64
	Extensions    int64
}

// GetStats returns a snapshot of the collected metrics.
func (c *BasicMetricsCollector) GetStats() MetricsStats {
	s := MetricsStats{
		SolveCount:  c.SolveCount.Load(),
		SolveErrors: c.SolveErrors.Load(),
		ApplyCount:  c.ApplyCount.Load(),
		ApplyErrors: c.ApplyErrors.Load(),
		Extensions:  c.ExtensionCount.Load(),
	}
	if s.SolveCount > 0 {
		s.SolveAvgNanos = c.SolveTotalNanos.Load() / s.SolveCount
	}
	if s.ApplyCount > 0 {
		s.ApplyAvgNanos = c.ApplyTotalNanos.Load() / s.ApplyCount
	}
	return s
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scheduler

import (
	"github.com/hashicorp/go-hclog"
)

// Context is used to track contextual information used for placement
type Context interface {
	// Logger provides a way to log
	Logger() hclog.Logger

	// Metrics returns the placement metrics for the workload being placed
	Metrics() *PlacementMetric

	// Reset is invoked before placing each workload
	Reset()
}

// PlacementContext is the Context used by a ResourceManager
type PlacementContext struct {
	logger  hclog.Logger
	metrics *PlacementMetric
}

// NewPlacementContext constructs a new PlacementContext
func NewPlacementContext(logger hclog.Logger) *PlacementContext {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PlacementContext{
		logger:  logger,
		metrics: new(PlacementMetric),
	}
}

func (c *PlacementContext) Logger() hclog.Logger {
	return c.logger
}

func (c *PlacementContext) Metrics() *PlacementMetric {
	return c.metrics
}

func (c *PlacementContext) Reset() {
	c.metrics = new(PlacementMetric)
}

// PlacementMetric records how a single workload was placed.
type PlacementMetric struct {
	// NodesEvaluated is the number of times a node was offered the
	// workload, across every attempt
	NodesEvaluated int

	// NodesRejected is the number of offers that were refused
	NodesRejected int

	// Attempt is the name of the attempt that placed the workload, or empty
	// if none did
	Attempt string

	// AttemptsUsed is the number of attempts that were tried
	AttemptsUsed int
}

func (m *PlacementMetric) EvaluateNode(accepted bool) {
	m.NodesEvaluated += 1
	if !accepted {
		m.NodesRejected += 1
	}
}

// Copy returns a copy of the metric.
func (m *PlacementMetric) Copy() *PlacementMetric {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

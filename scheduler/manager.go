// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scheduler

import (
	"maps"
	"slices"
	"time"

	"github.com/djhaskin987/lighthouse/structs"
	"github.com/hashicorp/go-hclog"
	metrics "github.com/hashicorp/go-metrics"
)

// ResourceManager assigns batches of workloads through a Distributor. For
// each workload it walks an ordered list of attempts, by default an amicable
// attempt that respects aversion groups followed by a plain one that does
// not, and stops at the first attempt that places it.
//
// A ResourceManager mutates the distributor's nodes and is not safe for
// concurrent use. Callers wanting concurrent rounds must lock around the
// manager or give each worker its own manager over disjoint nodes.
type ResourceManager struct {
	ctx         Context
	logger      hclog.Logger
	distributor Distributor
	attempts    []Attempt

	// assignments maps each workload to the node its latest placement
	// attempt chose. A workload left unassigned has no entry.
	assignments map[string]string

	// placements holds the metric of the latest placement of each workload
	placements map[string]*PlacementMetric
}

// NewResourceManager returns a ResourceManager using DefaultAttempts.
func NewResourceManager(logger hclog.Logger, d Distributor) *ResourceManager {
	return NewResourceManagerWithAttempts(logger, d, DefaultAttempts)
}

// NewResourceManagerWithAttempts returns a ResourceManager trying attempts in
// order for each workload.
func NewResourceManagerWithAttempts(logger hclog.Logger, d Distributor, attempts []Attempt) *ResourceManager {
	ctx := NewPlacementContext(logger)
	return &ResourceManager{
		ctx:         ctx,
		logger:      ctx.Logger().Named("resource_manager"),
		distributor: d,
		attempts:    slices.Clone(attempts),
		assignments: make(map[string]string),
		placements:  make(map[string]*PlacementMetric),
	}
}

// Distributor returns the policy the manager places through.
func (m *ResourceManager) Distributor() Distributor {
	return m.distributor
}

// AttemptAssignLoad places a single workload. It returns the name of the
// node that took it and true, or Unassigned and false.
func (m *ResourceManager) AttemptAssignLoad(w *structs.Workload) (string, bool) {
	m.ctx.Reset()
	metric := m.ctx.Metrics()
	defer func() { m.placements[w.Name] = metric.Copy() }()

	for i, attempt := range m.attempts {
		metric.AttemptsUsed = i + 1
		placer := m.observe(attempt.Placer)

		n := m.distributor.AttemptPlacement(placer, w)
		if n == nil {
			m.logger.Trace("attempt failed", "workload", w.Name, "attempt", attempt.Name)
			continue
		}

		metric.Attempt = attempt.Name
		m.assignments[w.Name] = n.Name
		metrics.IncrCounter([]string{"lighthouse", "placement", "placed"}, 1)
		if i > 0 {
			metrics.IncrCounter([]string{"lighthouse", "placement", "fallback"}, 1)
		}
		m.logger.Debug("workload placed", "workload", w.Name, "node", n.Name, "attempt", attempt.Name)
		return n.Name, true
	}

	delete(m.assignments, w.Name)
	metrics.IncrCounter([]string{"lighthouse", "placement", "unassigned"}, 1)
	m.logger.Debug("workload unassigned", "workload", w.Name,
		"nodes_evaluated", metric.NodesEvaluated)
	return Unassigned, false
}

// AttemptAssignLoads places a batch of workloads in the order the
// distributor prefers. The result has one entry per workload, holding the
// node name or Unassigned.
func (m *ResourceManager) AttemptAssignLoads(ws []*structs.Workload) map[string]string {
	defer metrics.MeasureSince([]string{"lighthouse", "placement", "batch"}, time.Now())

	result := make(map[string]string, len(ws))
	for _, w := range m.distributor.Order(ws) {
		result[w.Name], _ = m.AttemptAssignLoad(w)
	}

	m.logger.Debug("batch complete", "workloads", len(ws),
		"unassigned", len(UnassignedLoads(result)))
	return result
}

// Assignments returns the latest placement of every workload the manager has
// placed. Workloads whose latest attempt failed are left out.
func (m *ResourceManager) Assignments() map[string]string {
	return maps.Clone(m.assignments)
}

// PlacementMetric returns the metric recorded for the latest placement of
// the named workload.
func (m *ResourceManager) PlacementMetric(name string) *PlacementMetric {
	return m.placements[name].Copy()
}

// observe wraps p so each offer is recorded in the context's metrics.
func (m *ResourceManager) observe(p Placer) Placer {
	return func(n *structs.Node, w *structs.Workload) bool {
		ok := p(n, w)
		m.ctx.Metrics().EvaluateNode(ok)
		return ok
	}
}

// UnassignedLoads returns the sorted names of the workloads a batch result
// left unassigned.
func UnassignedLoads(result map[string]string) []string {
	var out []string
	for name, node := range result {
		if node == Unassigned {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

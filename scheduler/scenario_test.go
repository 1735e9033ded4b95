// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scheduler

import (
	"testing"

	"github.com/djhaskin987/lighthouse/ci"
	"github.com/djhaskin987/lighthouse/helper/testlog"
	"github.com/djhaskin987/lighthouse/structs"
	"github.com/google/go-cmp/cmp"
	"github.com/shoenig/test/must"
)

func goodReq() *structs.Workload {
	return structs.NewWorkload("good", map[string]float64{"cpu": 38, "mem": 24}, nil, nil)
}

func standardNodes() []*structs.Node {
	return []*structs.Node{
		structs.NewNode("first", map[string]float64{"cpu": 40, "mem": 80}),
		structs.NewNode("second", map[string]float64{"cpu": 20, "mem": 40}),
	}
}

func allDistributors(nodes []*structs.Node) map[string]Distributor {
	return map[string]Distributor{
		"priority":    NewPriorityDistributor(nodes),
		"round-robin": NewRoundRobinDistributor(nodes),
		"binpack": NewBinPackDistributor(
			structs.NewRubric(map[string]float64{"cpu": 1, "mem": 1}), nodes),
	}
}

func TestScenario_NoNodes(t *testing.T) {
	ci.Parallel(t)

	for name, d := range map[string]Distributor{
		"priority":    NewPriorityDistributor(nil),
		"round-robin": NewRoundRobinDistributor(nil),
		"binpack":     NewBinPackDistributor(structs.NewRubric(nil), nil),
	} {
		t.Run(name, func(t *testing.T) {
			m := NewResourceManager(testlog.HCLogger(t), d)
			results := m.AttemptAssignLoads([]*structs.Workload{goodReq()})
			must.Eq(t, map[string]string{"good": Unassigned}, results)
		})
	}
}

func TestScenario_TooSmall(t *testing.T) {
	ci.Parallel(t)

	for name := range allDistributors(nil) {
		t.Run(name, func(t *testing.T) {
			nodes := []*structs.Node{
				structs.NewNode("tiny", map[string]float64{"cpu": 10, "mem": 10}),
			}
			d := allDistributors(nodes)[name]
			m := NewResourceManager(testlog.HCLogger(t), d)

			results := m.AttemptAssignLoads([]*structs.Workload{goodReq()})
			must.Eq(t, map[string]string{"good": Unassigned}, results)
			must.Eq(t, map[string]float64{"cpu": 10, "mem": 10}, nodes[0].Resources)
		})
	}
}

func TestScenario_Standard(t *testing.T) {
	ci.Parallel(t)

	for name := range allDistributors(nil) {
		t.Run(name, func(t *testing.T) {
			nodes := standardNodes()
			m := NewResourceManager(testlog.HCLogger(t), allDistributors(nodes)[name])
			req := goodReq()

			results := m.AttemptAssignLoads([]*structs.Workload{req})
			must.Eq(t, map[string]string{"good": "first"}, results)

			expect := []*structs.Node{
				{
					Name:              "first",
					Resources:         map[string]float64{"cpu": 2, "mem": 56},
					AssignedWorkloads: map[string]*structs.Workload{"good": req},
				},
				standardNodes()[1],
			}
			if diff := cmp.Diff(expect, nodes, cmp.Comparer(workloadsEqual)); diff != "" {
				t.Fatalf("unexpected node state (-want +got):\n%s", diff)
			}
		})
	}
}

func workloadsEqual(a, b *structs.Workload) bool {
	return a == b
}

func TestScenario_SillyAndOff(t *testing.T) {
	ci.Parallel(t)

	silly := structs.NewWorkload("bad", map[string]float64{"cpu": 88, "mem": 164}, nil, nil)
	off := structs.NewWorkload("off", map[string]float64{"disk": 1}, nil, nil)
	vacuous := structs.NewWorkload("vacuous", nil, nil, nil)

	for name := range allDistributors(nil) {
		t.Run(name, func(t *testing.T) {
			nodes := standardNodes()
			m := NewResourceManager(testlog.HCLogger(t), allDistributors(nodes)[name])

			results := m.AttemptAssignLoads([]*structs.Workload{silly, off, vacuous})
			must.MapLen(t, 3, results)
			must.Eq(t, Unassigned, results["bad"])
			must.Eq(t, Unassigned, results["off"])
			must.NotEq(t, Unassigned, results["vacuous"])
			must.Eq(t, []string{"bad", "off"}, UnassignedLoads(results))
		})
	}
}

func TestScenario_Wards(t *testing.T) {
	ci.Parallel(t)

	newInn := func() *structs.Node {
		n := structs.NewNode("inn", map[string]float64{"room": 1, "board": 1})
		n.AddWard("spiders")
		return n
	}
	guest := structs.NewWorkload("guest", map[string]float64{"room": 1, "board": 1}, nil, nil)
	exterminator := structs.NewWorkload("exterminator", map[string]float64{"room": 1, "board": 1}, []string{"spiders"}, nil)

	m := NewResourceManager(testlog.HCLogger(t), NewPriorityDistributor([]*structs.Node{newInn()}))
	must.Eq(t, map[string]string{"guest": Unassigned}, m.AttemptAssignLoads([]*structs.Workload{guest}))

	m = NewResourceManager(testlog.HCLogger(t), NewPriorityDistributor([]*structs.Node{newInn()}))
	must.Eq(t, map[string]string{"exterminator": "inn"}, m.AttemptAssignLoads([]*structs.Workload{exterminator}))
}

func TestScenario_AversionSpread(t *testing.T) {
	ci.Parallel(t)

	a := structs.NewWorkload("a", map[string]float64{"cpu": 1}, nil, []string{"replicas"})
	b := structs.NewWorkload("b", map[string]float64{"cpu": 1}, nil, []string{"replicas"})

	for name := range allDistributors(nil) {
		t.Run(name, func(t *testing.T) {
			// two nodes, each with room for a single tagged workload
			nodes := []*structs.Node{
				structs.NewNode("first", map[string]float64{"cpu": 1}),
				structs.NewNode("second", map[string]float64{"cpu": 1}),
			}
			m := NewResourceManager(testlog.HCLogger(t), allDistributors(nodes)[name])
			results := m.AttemptAssignLoads([]*structs.Workload{a, b})
			must.NotEq(t, Unassigned, results["a"])
			must.NotEq(t, Unassigned, results["b"])
			must.NotEq(t, results["a"], results["b"])
		})

		t.Run(name+" single node", func(t *testing.T) {
			nodes := []*structs.Node{
				structs.NewNode("only", map[string]float64{"cpu": 2}),
			}
			m := NewResourceManager(testlog.HCLogger(t), allDistributors(nodes)[name])
			results := m.AttemptAssignLoads([]*structs.Workload{a, b})
			must.Eq(t, map[string]string{"a": "only", "b": "only"}, results)

			// the second one only landed through the fallback
			must.Eq(t, "plain", m.PlacementMetric("b").Attempt)
		})
	}
}

func TestScenario_AversionPrefersRoom(t *testing.T) {
	ci.Parallel(t)

	// with slack on the first node, priority order alone would stack both;
	// the aversion group moves the second to the other node
	nodes := []*structs.Node{
		structs.NewNode("first", map[string]float64{"cpu": 10}),
		structs.NewNode("second", map[string]float64{"cpu": 10}),
	}
	m := NewResourceManager(testlog.HCLogger(t), NewPriorityDistributor(nodes))
	results := m.AttemptAssignLoads([]*structs.Workload{
		structs.NewWorkload("a", map[string]float64{"cpu": 1}, nil, []string{"db"}),
		structs.NewWorkload("b", map[string]float64{"cpu": 1}, nil, []string{"db"}),
		structs.NewWorkload("c", map[string]float64{"cpu": 1}, nil, nil),
	})
	must.Eq(t, map[string]string{"a": "first", "b": "second", "c": "first"}, results)
}

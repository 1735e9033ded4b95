// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scheduler

import (
	"github.com/djhaskin987/lighthouse/structs"
)

// Unassigned marks a workload that no node would take in a batch result.
const Unassigned = ""

// Placer attempts to attach a workload to a node, returning whether it did.
// A Placer mutates the node only when it returns true.
type Placer func(*structs.Node, *structs.Workload) bool

// AmicablePlacer attaches a workload only to nodes holding no workload that
// shares one of its aversion groups.
func AmicablePlacer(n *structs.Node, w *structs.Workload) bool {
	return n.AttemptAttachAmicable(w)
}

// PlainPlacer attaches a workload wherever its resources fit, ignoring
// aversion groups.
func PlainPlacer(n *structs.Node, w *structs.Workload) bool {
	return n.AttemptAttach(w)
}

// Attempt is a named Placer in an attempt list.
type Attempt struct {
	Name   string
	Placer Placer
}

// DefaultAttempts tries to respect aversion groups first and falls back to a
// plain resource fit, so anti-affinity only biases placement.
var DefaultAttempts = []Attempt{
	{Name: "amicable", Placer: AmicablePlacer},
	{Name: "plain", Placer: PlainPlacer},
}

// Distributor is a placement policy over a fixed set of nodes. It is
// implemented by PriorityDistributor, RoundRobinDistributor and
// BinPackDistributor.
//
// Distributors keep state between calls and are not safe for concurrent use.
type Distributor interface {
	// AttemptPlacement offers w to candidate nodes in the policy's order
	// until p accepts it. It returns the accepting node, already mutated
	// by p, or nil if every candidate refused.
	AttemptPlacement(p Placer, w *structs.Workload) *structs.Node

	// Order returns the order in which a batch of workloads is placed.
	Order(ws []*structs.Workload) []*structs.Workload

	// Nodes returns the nodes the policy places onto.
	Nodes() []*structs.Node

	distributor()
}

// placeFirst offers w to each candidate from iter until p accepts it. It
// returns the accepted candidate and its position in iteration order, or nil
// and -1.
func placeFirst(iter RankIterator, p Placer, w *structs.Workload) (*RankedNode, int) {
	pos := 0
	for option := iter.Next(); option != nil; option = iter.Next() {
		if p(option.Node, w) {
			return option, pos
		}
		pos++
	}
	return nil, -1
}

// rankedList wraps nodes for a StaticRankIterator, starting at offset and
// wrapping around.
func rankedList(nodes []*structs.Node, offset int) []*RankedNode {
	out := make([]*RankedNode, len(nodes))
	for i := range nodes {
		out[i] = &RankedNode{Node: nodes[(offset+i)%len(nodes)]}
	}
	return out
}

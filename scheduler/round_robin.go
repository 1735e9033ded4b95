// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scheduler

import (
	"slices"

	"github.com/djhaskin987/lighthouse/structs"
)

// RoundRobinDistributor rotates through its nodes. Each placement starts
// with the node after the last one that accepted a workload.
type RoundRobinDistributor struct {
	nodes []*structs.Node

	// next is the index of the first candidate for the next placement. It
	// only moves when a placement succeeds.
	next int
}

// NewRoundRobinDistributor returns a RoundRobinDistributor over nodes,
// starting with the first.
func NewRoundRobinDistributor(nodes []*structs.Node) *RoundRobinDistributor {
	return &RoundRobinDistributor{nodes: slices.Clone(nodes)}
}

func (d *RoundRobinDistributor) AttemptPlacement(p Placer, w *structs.Workload) *structs.Node {
	size := len(d.nodes)
	if size == 0 {
		return nil
	}

	option, pos := placeFirst(NewStaticRankIterator(rankedList(d.nodes, d.next)), p, w)
	if option == nil {
		return nil
	}
	d.next = (d.next + pos + 1) % size
	return option.Node
}

// Order keeps the caller's order.
func (d *RoundRobinDistributor) Order(ws []*structs.Workload) []*structs.Workload {
	return ws
}

// Nodes returns the nodes in rotation order, starting with the next
// candidate.
func (d *RoundRobinDistributor) Nodes() []*structs.Node {
	out := make([]*structs.Node, 0, len(d.nodes))
	for _, r := range rankedList(d.nodes, d.next) {
		out = append(out, r.Node)
	}
	return out
}

func (d *RoundRobinDistributor) distributor() {}

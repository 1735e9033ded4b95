// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scheduler

import (
	"slices"

	"github.com/djhaskin987/lighthouse/structs"
)

// PriorityDistributor offers every workload to the nodes in the order they
// were given, so earlier nodes fill up first.
type PriorityDistributor struct {
	nodes []*structs.Node
}

// NewPriorityDistributor returns a PriorityDistributor over nodes.
func NewPriorityDistributor(nodes []*structs.Node) *PriorityDistributor {
	return &PriorityDistributor{nodes: slices.Clone(nodes)}
}

func (d *PriorityDistributor) AttemptPlacement(p Placer, w *structs.Workload) *structs.Node {
	option, _ := placeFirst(NewStaticRankIterator(rankedList(d.nodes, 0)), p, w)
	if option == nil {
		return nil
	}
	return option.Node
}

// Order keeps the caller's order.
func (d *PriorityDistributor) Order(ws []*structs.Workload) []*structs.Workload {
	return ws
}

func (d *PriorityDistributor) Nodes() []*structs.Node {
	return slices.Clone(d.nodes)
}

func (d *PriorityDistributor) distributor() {}

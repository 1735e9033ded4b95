// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scheduler

import (
	"github.com/djhaskin987/lighthouse/structs"
)

// BinPackDistributor places each workload on the node with the least
// remaining capacity that can still hold it, as measured by a rubric. Batches
// are placed largest workload first.
//
// Nodes scoring below the workload are skipped without being offered it.
// This prefilter is a heuristic: a node whose weighted capacity exceeds the
// workload's weighted demand may still lack a single resource, and a node
// scoring below it could in principle fit it under some weightings.
type BinPackDistributor struct {
	rubric *structs.Rubric
	index  *capacityIndex
}

// NewBinPackDistributor indexes nodes by their current rubric score.
func NewBinPackDistributor(rubric *structs.Rubric, nodes []*structs.Node) *BinPackDistributor {
	if rubric == nil {
		rubric = structs.NewRubric(nil)
	}
	d := &BinPackDistributor{
		rubric: rubric,
		index:  newCapacityIndex(),
	}
	for _, n := range nodes {
		d.index.Insert(n, rubric.Score(n.Resources))
	}
	return d
}

// Rubric returns the rubric nodes and workloads are scored by.
func (d *BinPackDistributor) Rubric() *structs.Rubric {
	return d.rubric
}

func (d *BinPackDistributor) AttemptPlacement(p Placer, w *structs.Workload) *structs.Node {
	need := d.rubric.Score(w.Requirements)

	option, _ := placeFirst(d.index.Seek(need), p, w)
	if option == nil {
		return nil
	}

	// the node's resources changed, so it moves in the index
	d.index.Insert(option.Node, d.rubric.Score(option.Node.Resources))
	return option.Node
}

// Order sorts the batch by descending rubric score.
func (d *BinPackDistributor) Order(ws []*structs.Workload) []*structs.Workload {
	return d.rubric.SortWorkloads(ws)
}

// Nodes returns the nodes in ascending (score, name) order.
func (d *BinPackDistributor) Nodes() []*structs.Node {
	ranked := d.Ranked()
	out := make([]*structs.Node, len(ranked))
	for i, r := range ranked {
		out[i] = r.Node
	}
	return out
}

// Ranked returns the indexed nodes with their scores in ascending order.
func (d *BinPackDistributor) Ranked() []*RankedNode {
	return collectRanked(d.index.All())
}

func (d *BinPackDistributor) distributor() {}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scheduler

import (
	"fmt"

	"github.com/djhaskin987/lighthouse/structs"
)

// RankedNode is a node along with the rubric score it was indexed under.
type RankedNode struct {
	Node  *structs.Node
	Score float64
}

func (r *RankedNode) GoString() string {
	return fmt.Sprintf("<Node: %s Score: %0.3f>", r.Node.Name, r.Score)
}

// RankIterator is used to iteratively yield nodes along with ranking
// metadata.
type RankIterator interface {
	Next() *RankedNode
}

// StaticRankIterator is a RankIterator that returns a static set of results.
type StaticRankIterator struct {
	nodes  []*RankedNode
	offset int
}

// NewStaticRankIterator returns a new static rank iterator over the given nodes
func NewStaticRankIterator(nodes []*RankedNode) *StaticRankIterator {
	return &StaticRankIterator{nodes: nodes}
}

func (iter *StaticRankIterator) Next() *RankedNode {
	// Check if exhausted
	if iter.offset == len(iter.nodes) {
		return nil
	}

	// Return the next offset
	offset := iter.offset
	iter.offset += 1
	return iter.nodes[offset]
}

// collectRanked drains iter.
func collectRanked(iter RankIterator) []*RankedNode {
	var out []*RankedNode
	for next := iter.Next(); next != nil; next = iter.Next() {
		out = append(out, next)
	}
	return out
}

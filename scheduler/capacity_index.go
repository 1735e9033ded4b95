// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scheduler

import (
	"encoding/binary"
	"math"

	"github.com/djhaskin987/lighthouse/lib/lang"
	"github.com/djhaskin987/lighthouse/structs"
	iradix "github.com/hashicorp/go-immutable-radix/v2"
)

// capacityKey orders indexed nodes by score, then by name.
type capacityKey = lang.Pair[float64, string]

// capacityIndex is an ordered index of nodes keyed by (score, name). Keys are
// encoded so that byte order in the radix tree matches key order, which makes
// a seek to the first node scoring at least some value a single tree walk.
//
// Each node appears exactly once. The index is not safe for concurrent use.
type capacityIndex struct {
	tree   *iradix.Tree[*structs.Node]
	scores map[string]float64
}

func newCapacityIndex() *capacityIndex {
	return &capacityIndex{
		tree:   iradix.New[*structs.Node](),
		scores: make(map[string]float64),
	}
}

// normalizeScore folds values that would otherwise break key ordering: NaN
// sorts below everything and negative zero is the same as zero.
func normalizeScore(score float64) float64 {
	switch {
	case math.IsNaN(score):
		return math.Inf(-1)
	case score == 0:
		return 0
	}
	return score
}

// encodeScore maps a float64 onto a big-endian uint64 whose unsigned order is
// the numeric order of the float.
func encodeScore(buf []byte, score float64) {
	bits := math.Float64bits(normalizeScore(score))
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	binary.BigEndian.PutUint64(buf, bits)
}

func decodeScore(buf []byte) float64 {
	bits := binary.BigEndian.Uint64(buf)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}

func encodeKey(k capacityKey) []byte {
	buf := make([]byte, 8, 8+len(k.Second))
	encodeScore(buf, k.First)
	return append(buf, k.Second...)
}

func decodeKey(raw []byte) capacityKey {
	return capacityKey{
		First:  decodeScore(raw[:8]),
		Second: string(raw[8:]),
	}
}

// Len returns the number of indexed nodes.
func (c *capacityIndex) Len() int {
	return c.tree.Len()
}

// Score returns the score a node is indexed under.
func (c *capacityIndex) Score(name string) (float64, bool) {
	score, ok := c.scores[name]
	return score, ok
}

// Insert indexes n under score, replacing any entry n already had.
func (c *capacityIndex) Insert(n *structs.Node, score float64) {
	c.Delete(n.Name)
	score = normalizeScore(score)
	c.tree, _, _ = c.tree.Insert(encodeKey(capacityKey{First: score, Second: n.Name}), n)
	c.scores[n.Name] = score
}

// Delete removes the named node from the index.
func (c *capacityIndex) Delete(name string) bool {
	old, ok := c.scores[name]
	if !ok {
		return false
	}
	c.tree, _, _ = c.tree.Delete(encodeKey(capacityKey{First: old, Second: name}))
	delete(c.scores, name)
	return true
}

// Seek returns an iterator over the nodes scoring at least minScore, in
// ascending (score, name) order. The iterator reads a snapshot, so the index
// may be modified while it is in use.
func (c *capacityIndex) Seek(minScore float64) RankIterator {
	seek := make([]byte, 8)
	encodeScore(seek, minScore)

	it := c.tree.Root().Iterator()
	it.SeekLowerBound(seek)
	return &capacityIterator{iter: it}
}

// All returns an iterator over every indexed node in ascending order.
func (c *capacityIndex) All() RankIterator {
	return c.Seek(math.Inf(-1))
}

type capacityIterator struct {
	iter *iradix.Iterator[*structs.Node]
}

func (ci *capacityIterator) Next() *RankedNode {
	raw, n, ok := ci.iter.Next()
	if !ok {
		return nil
	}
	return &RankedNode{
		Node:  n,
		Score: decodeKey(raw).First,
	}
}

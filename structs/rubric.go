// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package structs

import (
	"cmp"
	"maps"
	"slices"
)

// Rubric is a weighted linear score over a resource vector. It is used to
// rank nodes by their remaining resources and workloads by their
// requirements.
type Rubric struct {
	Weights map[string]float64

	// keys holds the weight keys in sorted order. Scores are summed in this
	// order so a vector always gets the same score.
	keys []string
}

// NewRubric returns a Rubric over the given weights. A nil or empty weight
// map scores every vector as 0.
func NewRubric(weights map[string]float64) *Rubric {
	if weights == nil {
		weights = make(map[string]float64)
	}
	return &Rubric{
		Weights: weights,
		keys:    slices.Sorted(maps.Keys(weights)),
	}
}

// Score sums weight*value over the keys present in both the rubric and the
// vector. Keys found on only one side are ignored.
func (r *Rubric) Score(vector map[string]float64) float64 {
	if r == nil {
		return 0
	}

	keys := r.keys
	if len(keys) != len(r.Weights) {
		keys = slices.Sorted(maps.Keys(r.Weights))
	}

	score := 0.0
	for _, k := range keys {
		if y, ok := vector[k]; ok {
			score += r.Weights[k] * y
		}
	}
	return score
}

// SortWorkloads returns a copy of ws ordered by descending requirement score,
// biggest workload first. Workloads with equal scores keep their input order.
func (r *Rubric) SortWorkloads(ws []*Workload) []*Workload {
	out := slices.Clone(ws)
	slices.SortStableFunc(out, func(a, b *Workload) int {
		return cmp.Compare(r.Score(b.Requirements), r.Score(a.Requirements))
	})
	return out
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package structs

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/hashicorp/go-set/v3"
)

// Ward is the capacity value that closes a resource key on a node. Any
// workload not immune to a warded key is refused by that node, whether or not
// the workload requires the key.
var Ward = math.Inf(-1)

// IsWard reports whether v is the ward value.
func IsWard(v float64) bool {
	return math.IsInf(v, -1)
}

// Workload describes the resources a unit of work needs. A Workload is not
// modified by placement and may be shared between batches.
type Workload struct {
	// Name identifies the workload within a batch.
	Name string

	// Requirements maps each resource key to the amount the workload
	// consumes. Negative amounts give capacity back to the node.
	Requirements map[string]float64

	// Immunities are resource keys exempt from the non-negativity check
	// during attachment.
	Immunities *set.Set[string]

	// AversionGroups are anti-affinity tags. Workloads sharing a tag are not
	// amicably placed on the same node.
	AversionGroups *set.Set[string]
}

// NewWorkload returns a Workload with nil collections normalized to empty
// ones.
func NewWorkload(name string, requirements map[string]float64, immunities, aversionGroups []string) *Workload {
	if requirements == nil {
		requirements = make(map[string]float64)
	}
	return &Workload{
		Name:           name,
		Requirements:   requirements,
		Immunities:     set.From(immunities),
		AversionGroups: set.From(aversionGroups),
	}
}

// IsImmune returns whether the workload is exempt from the non-negativity
// check on key.
func (w *Workload) IsImmune(key string) bool {
	return w.Immunities != nil && w.Immunities.Contains(key)
}

// Averse returns whether w and o share an aversion group.
func (w *Workload) Averse(o *Workload) bool {
	if w.AversionGroups == nil || o.AversionGroups == nil {
		return false
	}
	for group := range w.AversionGroups.Items() {
		if o.AversionGroups.Contains(group) {
			return true
		}
	}
	return false
}

func (w *Workload) GoString() string {
	return fmt.Sprintf("<Workload: %s Requirements: %s>", w.Name, formatVector(w.Requirements))
}

// Node is a unit of capacity. Resources hold the capacity that remains after
// the attached workloads have been subtracted from it.
//
// A Node is not safe for concurrent use.
type Node struct {
	// Name identifies the node.
	Name string

	// Resources maps each advertised resource key to its remaining
	// capacity. A node must advertise every key a workload requires, even
	// as a zero valued tag.
	Resources map[string]float64

	// AssignedWorkloads holds the workloads attached to the node, by name.
	AssignedWorkloads map[string]*Workload
}

// NewNode returns an unattached Node with the given resources.
func NewNode(name string, resources map[string]float64) *Node {
	if resources == nil {
		resources = make(map[string]float64)
	}
	return &Node{
		Name:              name,
		Resources:         resources,
		AssignedWorkloads: make(map[string]*Workload),
	}
}

// Copy returns a copy of the node. Assigned workloads are shared since they
// are never modified.
func (n *Node) Copy() *Node {
	if n == nil {
		return nil
	}
	return &Node{
		Name:              n.Name,
		Resources:         maps.Clone(n.Resources),
		AssignedWorkloads: maps.Clone(n.AssignedWorkloads),
	}
}

// AddWard closes key on the node to every workload not immune to it.
func (n *Node) AddWard(key string) {
	n.Resources[key] = Ward
}

// HasAverseLoads returns whether any workload attached to the node shares an
// aversion group with w.
func (n *Node) HasAverseLoads(w *Workload) bool {
	for _, assigned := range n.AssignedWorkloads {
		if assigned.Averse(w) {
			return true
		}
	}
	return false
}

// AttemptAttach attaches w to the node if the node can hold it, subtracting
// the workload's requirements from the node's resources. It returns false
// and leaves the node untouched when:
//
//   - w requires a resource key the node does not advertise
//   - a required key would go negative and w is not immune to it
//   - a key w does not require is already negative (a ward, for example)
//     and w is not immune to it
func (n *Node) AttemptAttach(w *Workload) bool {
	used := make(map[string]float64, len(w.Requirements))

	for k, need := range w.Requirements {
		have, ok := n.Resources[k]
		if !ok {
			return false
		}
		v := have - need
		if v < 0 && !w.IsImmune(k) {
			return false
		}
		used[k] = v
	}

	for k, have := range n.Resources {
		if _, ok := used[k]; ok {
			continue
		}
		if have < 0 && !w.IsImmune(k) {
			return false
		}
	}

	maps.Copy(n.Resources, used)
	n.AssignedWorkloads[w.Name] = w
	return true
}

// AttemptAttachAmicable attaches w unless a workload sharing one of its
// aversion groups is already on the node.
func (n *Node) AttemptAttachAmicable(w *Workload) bool {
	if n.HasAverseLoads(w) {
		return false
	}
	return n.AttemptAttach(w)
}

// DetachAll returns the requirements of every attached workload to the
// node's resources and forgets the workloads.
func (n *Node) DetachAll() {
	for _, w := range n.AssignedWorkloads {
		for k, need := range w.Requirements {
			n.Resources[k] += need
		}
	}
	clear(n.AssignedWorkloads)
}

// AssignedNames returns the names of the attached workloads, sorted.
func (n *Node) AssignedNames() []string {
	return slices.Sorted(maps.Keys(n.AssignedWorkloads))
}

func (n *Node) GoString() string {
	return fmt.Sprintf("<Node: %s Resources: %s Workloads: %v>",
		n.Name, formatVector(n.Resources), n.AssignedNames())
}

// FormatVector renders a resource vector as "k=v, ..." with keys sorted and
// wards shown as "ward".
func FormatVector(v map[string]float64) string {
	return formatVector(v)
}

func formatVector(v map[string]float64) string {
	parts := make([]string, 0, len(v))
	for _, k := range slices.Sorted(maps.Keys(v)) {
		if IsWard(v[k]) {
			parts = append(parts, k+"=ward")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%g", k, v[k]))
	}
	return strings.Join(parts, ", ")
}

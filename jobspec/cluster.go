// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jobspec

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/djhaskin987/lighthouse/scheduler"
	"github.com/djhaskin987/lighthouse/structs"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/copystructure"
)

const (
	PolicyPriority   = "priority"
	PolicyRoundRobin = "round-robin"
	PolicyBinPack    = "binpack"
)

// PolicyTypes lists the accepted policy names.
var PolicyTypes = []string{PolicyPriority, PolicyRoundRobin, PolicyBinPack}

var ErrUnknownPolicy = errors.New("unknown policy")

// Policy selects how workloads are distributed over nodes.
type Policy struct {
	Type string

	// Rubric weights are only used by the binpack policy
	Rubric map[string]float64
}

// Copy returns a deep copy of the policy.
func (p *Policy) Copy() *Policy {
	if p == nil {
		return nil
	}
	return copystructure.Must(copystructure.Copy(p)).(*Policy)
}

// ParsePolicyType normalizes a policy name. The empty string selects the
// priority policy.
func ParsePolicyType(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", PolicyPriority, "prioritized":
		return PolicyPriority, nil
	case PolicyRoundRobin, "round_robin", "roundrobin":
		return PolicyRoundRobin, nil
	case PolicyBinPack, "bin-pack", "bin_pack":
		return PolicyBinPack, nil
	default:
		return "", fmt.Errorf("%w %q, expected one of %s",
			ErrUnknownPolicy, s, strings.Join(PolicyTypes, ", "))
	}
}

// Cluster is a decoded cluster document: the nodes available, the workloads
// to place on them and the policy to place them with.
type Cluster struct {
	Policy    *Policy
	Nodes     []*structs.Node
	Workloads []*structs.Workload
}

// Canonicalize fills in a default policy and normalizes its type when it is
// a known alias.
func (c *Cluster) Canonicalize() {
	if c.Policy == nil {
		c.Policy = &Policy{}
	}
	if t, err := ParsePolicyType(c.Policy.Type); err == nil {
		c.Policy.Type = t
	}
}

// Validate checks the cluster as a whole and returns every problem found.
func (c *Cluster) Validate() error {
	var mErr multierror.Error
	if c.Policy != nil {
		if _, err := ParsePolicyType(c.Policy.Type); err != nil {
			mErr.Errors = append(mErr.Errors, err)
		}
		for k, v := range c.Policy.Rubric {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				mErr.Errors = append(mErr.Errors, fmt.Errorf("rubric weight %q must be finite", k))
			}
		}
	}
	if err := structs.ValidateNodes(c.Nodes); err != nil {
		mErr.Errors = append(mErr.Errors, err)
	}
	if err := structs.ValidateWorkloads(c.Workloads); err != nil {
		mErr.Errors = append(mErr.Errors, err)
	}
	return mErr.ErrorOrNil()
}

// Distributor builds the distributor the policy names over the cluster's
// nodes. The distributor takes ownership of the nodes.
func (c *Cluster) Distributor() (scheduler.Distributor, error) {
	policy := c.Policy
	if policy == nil {
		policy = &Policy{}
	}

	t, err := ParsePolicyType(policy.Type)
	if err != nil {
		return nil, err
	}

	switch t {
	case PolicyRoundRobin:
		return scheduler.NewRoundRobinDistributor(c.Nodes), nil
	case PolicyBinPack:
		return scheduler.NewBinPackDistributor(structs.NewRubric(policy.Rubric), c.Nodes), nil
	default:
		return scheduler.NewPriorityDistributor(c.Nodes), nil
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jobspec

import (
	"errors"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/djhaskin987/lighthouse/ci"
	"github.com/djhaskin987/lighthouse/scheduler"
	"github.com/djhaskin987/lighthouse/structs"
	"github.com/shoenig/test/must"
)

type workloadSummary struct {
	Name           string
	Requirements   map[string]float64
	Immunities     []string
	AversionGroups []string
}

func summarize(ws []*structs.Workload) []workloadSummary {
	out := make([]workloadSummary, 0, len(ws))
	for _, w := range ws {
		out = append(out, workloadSummary{
			Name:           w.Name,
			Requirements:   w.Requirements,
			Immunities:     sortedOrNil(w.Immunities.Slice()),
			AversionGroups: sortedOrNil(w.AversionGroups.Slice()),
		})
	}
	return out
}

func sortedOrNil(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	slices.Sort(s)
	return s
}

func fixture(t *testing.T, name string) string {
	path, err := filepath.Abs(filepath.Join("./test-fixtures", name))
	must.NoError(t, err)
	return path
}

func TestParse_Basic(t *testing.T) {
	ci.Parallel(t)

	for _, file := range []string{"basic.hcl", "basic.json"} {
		t.Run(file, func(t *testing.T) {
			c, err := ParseFile(fixture(t, file))
			must.NoError(t, err)

			must.Eq(t, &Policy{
				Type:   PolicyBinPack,
				Rubric: map[string]float64{"cpu": 1, "mem": 0.5},
			}, c.Policy)

			must.Len(t, 3, c.Nodes)
			must.Eq(t, "first", c.Nodes[0].Name)
			must.Eq(t, map[string]float64{"cpu": 40, "mem": 80}, c.Nodes[0].Resources)
			must.Eq(t, "second", c.Nodes[1].Name)
			must.True(t, math.IsInf(c.Nodes[1].Resources["spiders"], -1))
			must.Eq(t, "third", c.Nodes[2].Name)
			must.True(t, math.IsInf(c.Nodes[2].Resources["maintenance"], -1))

			must.Eq(t, []workloadSummary{
				{
					Name:           "web",
					Requirements:   map[string]float64{"cpu": 4, "mem": 8},
					AversionGroups: []string{"frontend"},
				},
				{
					Name:         "exterminator",
					Requirements: map[string]float64{"cpu": 1},
					Immunities:   []string{"maintenance", "spiders"},
				},
				{
					Name:         "sidecar",
					Requirements: map[string]float64{},
				},
			}, summarize(c.Workloads))
		})
	}
}

func TestParse_Placement(t *testing.T) {
	ci.Parallel(t)

	c, err := ParseFile(fixture(t, "basic.hcl"))
	must.NoError(t, err)

	d, err := c.Distributor()
	must.NoError(t, err)
	_, ok := d.(*scheduler.BinPackDistributor)
	must.True(t, ok)

	m := scheduler.NewResourceManager(nil, d)
	results := m.AttemptAssignLoads(c.Workloads)
	must.Eq(t, map[string]string{
		"web":          "first",
		"exterminator": "third",
		"sidecar":      "first",
	}, results)
}

func TestParse_DefaultPolicy(t *testing.T) {
	ci.Parallel(t)

	c, err := ParseFile(fixture(t, "no-policy.hcl"))
	must.NoError(t, err)
	must.Eq(t, PolicyPriority, c.Policy.Type)

	d, err := c.Distributor()
	must.NoError(t, err)
	_, ok := d.(*scheduler.PriorityDistributor)
	must.True(t, ok)
}

func TestParse_Errors(t *testing.T) {
	ci.Parallel(t)

	cases := []struct {
		file   string
		target error
		msg    string
	}{
		{file: "duplicate-names.hcl", target: structs.ErrDuplicateName},
		{file: "bad-policy.hcl", target: ErrUnknownPolicy},
		{file: "missing-resources.hcl", msg: `"resources" is required`},
		{file: "missing-requirements.json", target: structs.ErrMissingResources},
	}

	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			_, err := ParseFile(fixture(t, tc.file))
			must.Error(t, err)
			if tc.target != nil {
				must.True(t, errors.Is(err, tc.target), must.Sprintf("got %v", err))
			}
			if tc.msg != "" {
				must.StrContains(t, err.Error(), tc.msg)
			}
		})
	}
}

func TestParse_Reader(t *testing.T) {
	ci.Parallel(t)

	src := `
node "a" {
  resources = { cpu = 1 }
}
`
	c, err := Parse("inline.hcl", strings.NewReader(src))
	must.NoError(t, err)
	must.Len(t, 1, c.Nodes)
	must.SliceEmpty(t, c.Workloads)

	_, err = Parse("inline.json", strings.NewReader(`{"nodes": [], "extra": 1}`))
	must.ErrorContains(t, err, "unknown field")
}

func TestParsePolicyType(t *testing.T) {
	ci.Parallel(t)

	for in, expect := range map[string]string{
		"":            PolicyPriority,
		"Prioritized": PolicyPriority,
		"round_robin": PolicyRoundRobin,
		"round-robin": PolicyRoundRobin,
		" binpack ":   PolicyBinPack,
		"bin-pack":    PolicyBinPack,
	} {
		got, err := ParsePolicyType(in)
		must.NoError(t, err)
		must.Eq(t, expect, got)
	}

	_, err := ParsePolicyType("spread")
	must.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestCluster_Validate(t *testing.T) {
	ci.Parallel(t)

	c := &Cluster{
		Policy: &Policy{Type: PolicyBinPack, Rubric: map[string]float64{"cpu": math.Inf(1)}},
		Nodes:  []*structs.Node{structs.NewNode("", nil)},
	}
	err := c.Validate()
	must.ErrorContains(t, err, `rubric weight "cpu" must be finite`)
	must.ErrorIs(t, err, structs.ErrMissingName)

	p := c.Policy.Copy()
	p.Rubric["cpu"] = 1
	must.True(t, math.IsInf(c.Policy.Rubric["cpu"], 1))
}

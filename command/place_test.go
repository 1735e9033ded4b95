// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/djhaskin987/lighthouse/ci"
	"github.com/hashicorp/cli"
	"github.com/shoenig/test/must"
)

const standardCluster = `
node "first" {
  resources = { cpu = 40, mem = 80 }
}

node "second" {
  resources = { cpu = 20, mem = 40 }
}

workload "good" {
  requirements = { cpu = 38, mem = 24 }
}
`

const crowdedCluster = `
node "only" {
  resources = { cpu = 4, spiders = "ward" }
}

workload "fits" {
  requirements = { cpu = 1 }
  immunities   = ["spiders"]
}

workload "huge" {
  requirements = { cpu = 100 }
  immunities   = ["spiders"]
}
`

const bestFitCluster = `
node "big" {
  resources = { cpu = 100 }
}

node "small" {
  resources = { cpu = 10 }
}

workload "w" {
  requirements = { cpu = 5 }
}
`

func writeCluster(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	must.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestPlaceCommand_Implements(t *testing.T) {
	ci.Parallel(t)
	var _ cli.Command = &PlaceCommand{}
}

func TestPlaceCommand_AllPlaced(t *testing.T) {
	ci.Parallel(t)

	ui := cli.NewMockUi()
	cmd := &PlaceCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run([]string{writeCluster(t, "standard.hcl", standardCluster)})
	must.Zero(t, code, must.Sprintf("stderr: %s", ui.ErrorWriter.String()))

	out := ui.OutputWriter.String()
	must.StrContains(t, out, "Placements")
	must.RegexMatch(t, regexp.MustCompile(`good\s+first\s+cpu=38, mem=24`), out)
	must.RegexMatch(t, regexp.MustCompile(`first\s+cpu=2, mem=56\s+good`), out)
	must.RegexMatch(t, regexp.MustCompile(`second\s+cpu=20, mem=40\s+<none>`), out)
	must.Eq(t, "", ui.ErrorWriter.String())
}

func TestPlaceCommand_Unassigned(t *testing.T) {
	ci.Parallel(t)

	ui := cli.NewMockUi()
	cmd := &PlaceCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run([]string{"-verbose", writeCluster(t, "crowded.hcl", crowdedCluster)})
	must.Eq(t, placeExitUnassigned, code)

	out := ui.OutputWriter.String()
	must.RegexMatch(t, regexp.MustCompile(`fits\s+only\s+cpu=1\s+amicable\s+1\s+0`), out)
	must.RegexMatch(t, regexp.MustCompile(`huge\s+unassigned\s+cpu=100\s+<none>\s+2\s+2`), out)
	must.RegexMatch(t, regexp.MustCompile(`only\s+cpu=3, spiders=ward\s+fits`), out)
	must.StrContains(t, ui.ErrorWriter.String(), "1 of 2 workloads could not be placed: huge")
}

func TestPlaceCommand_JSON(t *testing.T) {
	ci.Parallel(t)

	ui := cli.NewMockUi()
	cmd := &PlaceCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run([]string{"-json", writeCluster(t, "crowded.hcl", crowdedCluster)})
	must.Eq(t, placeExitUnassigned, code)

	var out placementOutput
	must.NoError(t, json.Unmarshal([]byte(ui.OutputWriter.String()), &out))
	must.Eq(t, "priority", out.Policy)
	must.Eq(t, map[string]string{"fits": "only"}, out.Assignments)
	must.Eq(t, []string{"huge"}, out.Unassigned)
	must.Len(t, 1, out.Nodes)
	must.Eq(t, map[string]any{"cpu": 3.0, "spiders": "ward"}, out.Nodes[0].Remaining)
	must.Eq(t, []string{"fits"}, out.Nodes[0].Workloads)

	// the warning goes through the logger so stdout stays valid JSON
	must.StrContains(t, ui.ErrorWriter.String(), "[WARN]  lighthouse.place: 1 of 2 workloads could not be placed")
}

func TestPlaceCommand_JSONNonFinite(t *testing.T) {
	ci.Parallel(t)

	src := `
node "unbounded" {
  resources = { cpu = "inf", spiders = "ward" }
}

workload "w" {
  requirements = { cpu = 1 }
  immunities   = ["spiders"]
}
`
	ui := cli.NewMockUi()
	cmd := &PlaceCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run([]string{"-json", writeCluster(t, "unbounded.hcl", src)})
	must.Zero(t, code, must.Sprintf("stderr: %s", ui.ErrorWriter.String()))

	var out placementOutput
	must.NoError(t, json.Unmarshal([]byte(ui.OutputWriter.String()), &out))
	must.Eq(t, map[string]string{"w": "unbounded"}, out.Assignments)
	must.Eq(t, map[string]any{"cpu": "inf", "spiders": "ward"}, out.Nodes[0].Remaining)
}

func TestJSONVector(t *testing.T) {
	ci.Parallel(t)

	got := jsonVector(map[string]float64{
		"cpu":     2.5,
		"spiders": math.Inf(-1),
		"disk":    math.Inf(1),
		"gpu":     math.NaN(),
	})
	must.Eq(t, map[string]any{"cpu": 2.5, "spiders": "ward", "disk": "inf", "gpu": "nan"}, got)

	_, err := json.Marshal(got)
	must.NoError(t, err)
}

func TestPlaceCommand_PolicyOverride(t *testing.T) {
	ci.Parallel(t)

	path := writeCluster(t, "bestfit.hcl", bestFitCluster)

	ui := cli.NewMockUi()
	cmd := &PlaceCommand{Meta: Meta{Ui: ui}}
	must.Zero(t, cmd.Run([]string{"-json", path}))
	var out placementOutput
	must.NoError(t, json.Unmarshal([]byte(ui.OutputWriter.String()), &out))
	must.Eq(t, map[string]string{"w": "big"}, out.Assignments)

	ui = cli.NewMockUi()
	cmd = &PlaceCommand{Meta: Meta{Ui: ui}}
	must.Zero(t, cmd.Run([]string{"-json", "-policy", "binpack", "-rubric", "cpu=1", path}))
	out = placementOutput{}
	must.NoError(t, json.Unmarshal([]byte(ui.OutputWriter.String()), &out))
	must.Eq(t, "binpack", out.Policy)
	must.Eq(t, map[string]string{"w": "small"}, out.Assignments)
}

func TestPlaceCommand_Metrics(t *testing.T) {
	ci.Parallel(t)

	ui := cli.NewMockUi()
	cmd := &PlaceCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run([]string{"-metrics", writeCluster(t, "standard.hcl", standardCluster)})
	must.Zero(t, code)
	out := ui.OutputWriter.String()
	must.StrContains(t, out, "Metrics")
	must.StrContains(t, out, "lighthouse.placement.placed")
	must.StrContains(t, out, "lighthouse.placement.batch")
}

func TestPlaceCommand_Fails(t *testing.T) {
	ci.Parallel(t)

	path := writeCluster(t, "standard.hcl", standardCluster)

	cases := []struct {
		name string
		args []string
		msg  string
	}{
		{name: "no args", args: nil, msg: "This command takes one argument"},
		{name: "too many args", args: []string{path, path}, msg: "This command takes one argument"},
		{name: "missing file", args: []string{"/nonexistent/cluster.hcl"}, msg: "Error parsing cluster file"},
		{name: "bad policy", args: []string{"-policy", "spread", path}, msg: "unknown policy"},
		{name: "bad rubric", args: []string{"-rubric", "cpu", path}, msg: "must be of the form key=value"},
		{name: "infinite rubric", args: []string{"-rubric", "cpu=inf", path}, msg: "must be finite"},
		{name: "bad log level", args: []string{"-log-level", "loud", path}, msg: "Invalid log level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ui := cli.NewMockUi()
			cmd := &PlaceCommand{Meta: Meta{Ui: ui}}
			must.One(t, cmd.Run(tc.args))
			must.StrContains(t, ui.ErrorWriter.String(), tc.msg)
		})
	}
}

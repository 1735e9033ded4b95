// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jobspec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	lhcl "github.com/djhaskin987/lighthouse/helper/hcl"
	"github.com/djhaskin987/lighthouse/structs"
)

type clusterFile struct {
	Policy    *policyBlock     `hcl:"policy,block"`
	Nodes     []*nodeBlock     `hcl:"node,block"`
	Workloads []*workloadBlock `hcl:"workload,block"`
}

type policyBlock struct {
	Type   string             `hcl:"type,optional"`
	Rubric map[string]float64 `hcl:"rubric,optional"`
}

type nodeBlock struct {
	Name      string             `hcl:"name,label"`
	Resources map[string]float64 `hcl:"resources"`
	Wards     []string           `hcl:"wards,optional"`
}

type workloadBlock struct {
	Name           string             `hcl:"name,label"`
	Requirements   map[string]float64 `hcl:"requirements"`
	Immunities     []string           `hcl:"immunities,optional"`
	AversionGroups []string           `hcl:"aversion_groups,optional"`
}

// jsonFile is the JSON form of a cluster document. Nodes and workloads keep
// the loosely typed shape accepted by structs.NodesFromList and
// structs.WorkloadsFromList.
type jsonFile struct {
	Policy    *jsonPolicy      `json:"policy"`
	Nodes     []map[string]any `json:"nodes"`
	Workloads []map[string]any `json:"workloads"`
}

type jsonPolicy struct {
	Type   string             `json:"type"`
	Rubric map[string]float64 `json:"rubric"`
}

// Parse parses the cluster document from the given io.Reader. Documents whose
// path ends in ".json" are read as JSON, everything else as HCL.
//
// The entire contents of the io.Reader are copied into memory before
// parsing.
func Parse(path string, r io.Reader) (*Cluster, error) {
	if path == "" {
		if f, ok := r.(*os.File); ok {
			path = f.Name()
		}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return ParseBytes(buf.Bytes(), path)
}

// ParseFile parses the given path as a cluster document.
func ParseFile(path string) (*Cluster, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(path, f)
}

// ParseBytes parses src, using filename to pick the format and to report
// positions. The returned cluster is canonicalized and validated.
func ParseBytes(src []byte, filename string) (*Cluster, error) {
	var (
		c   *Cluster
		err error
	)
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		c, err = parseJSON(src)
	} else {
		c, err = parseHCL(src, filename)
	}
	if err != nil {
		return nil, err
	}

	c.Canonicalize()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cluster: %w", err)
	}
	return c, nil
}

func parseHCL(src []byte, filename string) (*Cluster, error) {
	var file clusterFile
	if diags := lhcl.NewParser().Parse(src, &file, filename); diags.HasErrors() {
		return nil, diags
	}

	c := &Cluster{
		Nodes:     make([]*structs.Node, 0, len(file.Nodes)),
		Workloads: make([]*structs.Workload, 0, len(file.Workloads)),
	}
	if file.Policy != nil {
		c.Policy = &Policy{
			Type:   file.Policy.Type,
			Rubric: file.Policy.Rubric,
		}
	}
	for _, nb := range file.Nodes {
		n := structs.NewNode(nb.Name, nb.Resources)
		for _, key := range nb.Wards {
			n.AddWard(key)
		}
		c.Nodes = append(c.Nodes, n)
	}
	for _, wb := range file.Workloads {
		c.Workloads = append(c.Workloads,
			structs.NewWorkload(wb.Name, wb.Requirements, wb.Immunities, wb.AversionGroups))
	}
	return c, nil
}

func parseJSON(src []byte) (*Cluster, error) {
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.DisallowUnknownFields()

	var file jsonFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("error parsing: %w", err)
	}

	nodes, err := structs.NodesFromList(file.Nodes)
	if err != nil {
		return nil, fmt.Errorf("error parsing 'nodes': %w", err)
	}
	workloads, err := structs.WorkloadsFromList(file.Workloads)
	if err != nil {
		return nil, fmt.Errorf("error parsing 'workloads': %w", err)
	}

	c := &Cluster{
		Nodes:     nodes,
		Workloads: workloads,
	}
	if file.Policy != nil {
		c.Policy = &Policy{
			Type:   file.Policy.Type,
			Rubric: file.Policy.Rubric,
		}
	}
	return c, nil
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package structs

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-multierror"
)

type workloadDoc struct {
	Name           string             `mapstructure:"name"`
	Requirements   map[string]float64 `mapstructure:"requirements"`
	Immunities     []string           `mapstructure:"immunities"`
	AversionGroups []string           `mapstructure:"aversion_groups"`
}

type nodeDoc struct {
	Name      string             `mapstructure:"name"`
	Resources map[string]float64 `mapstructure:"resources"`
	Wards     []string           `mapstructure:"wards"`
}

// ParseCapacity converts a loosely typed capacity value into a float. Numbers
// pass through, numeric strings are parsed, and the strings "ward" and
// "-inf" produce the Ward value.
func ParseCapacity(raw string) (float64, error) {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case "ward", "-inf", "-infinity":
		return Ward, nil
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidCapacity, raw)
		}
		return v, nil
	}
}

// capacityHook lets string values stand in for float64 capacities.
func capacityHook(from, to reflect.Kind, data any) (any, error) {
	if from != reflect.String || to != reflect.Float64 {
		return data, nil
	}
	return ParseCapacity(data.(string))
}

func decode(m map[string]any, out any) error {
	cfg := &mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.DecodeHookFuncKind(capacityHook),
		ErrorUnused: true,
		Result:      out,
	}

	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return dec.Decode(m)
}

// WorkloadFromMap builds a Workload from a loosely typed document such as a
// parsed JSON object. The "requirements" key is required but may be empty;
// "immunities" and "aversion_groups" default to empty.
func WorkloadFromMap(m map[string]any) (*Workload, error) {
	var doc workloadDoc
	if err := decode(m, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode workload: %w", err)
	}

	var mErr multierror.Error
	if doc.Name == "" {
		mErr.Errors = append(mErr.Errors, fmt.Errorf("workload: %w", ErrMissingName))
	}
	if m["requirements"] == nil {
		mErr.Errors = append(mErr.Errors,
			fmt.Errorf("workload %q: %w: requirements", doc.Name, ErrMissingResources))
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return nil, err
	}

	return NewWorkload(doc.Name, doc.Requirements, doc.Immunities, doc.AversionGroups), nil
}

// WorkloadsFromList builds each workload in ms and checks that the batch is
// valid as a whole.
func WorkloadsFromList(ms []map[string]any) ([]*Workload, error) {
	var mErr multierror.Error
	out := make([]*Workload, 0, len(ms))
	for i, m := range ms {
		w, err := WorkloadFromMap(m)
		if err != nil {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("workload %d: %w", i, err))
			continue
		}
		out = append(out, w)
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return nil, err
	}
	if err := ValidateWorkloads(out); err != nil {
		return nil, err
	}
	return out, nil
}

// NodeFromMap builds a Node from a loosely typed document. The "resources"
// key is required but may be empty. Keys listed under "wards" are warded
// after the resources are set.
func NodeFromMap(m map[string]any) (*Node, error) {
	var doc nodeDoc
	if err := decode(m, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}

	var mErr multierror.Error
	if doc.Name == "" {
		mErr.Errors = append(mErr.Errors, fmt.Errorf("node: %w", ErrMissingName))
	}
	if m["resources"] == nil {
		mErr.Errors = append(mErr.Errors,
			fmt.Errorf("node %q: %w: resources", doc.Name, ErrMissingResources))
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return nil, err
	}

	n := NewNode(doc.Name, doc.Resources)
	for _, key := range doc.Wards {
		n.AddWard(key)
	}
	return n, nil
}

// NodesFromList builds each node in ms, preserving order, and checks that
// node names are unique.
func NodesFromList(ms []map[string]any) ([]*Node, error) {
	var mErr multierror.Error
	out := make([]*Node, 0, len(ms))
	for i, m := range ms {
		n, err := NodeFromMap(m)
		if err != nil {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("node %d: %w", i, err))
			continue
		}
		out = append(out, n)
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return nil, err
	}
	if err := ValidateNodes(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateWorkloads checks that every workload is named and that names are
// unique within the batch.
func ValidateWorkloads(ws []*Workload) error {
	var mErr multierror.Error
	seen := make(map[string]struct{}, len(ws))
	for i, w := range ws {
		switch {
		case w == nil:
			mErr.Errors = append(mErr.Errors, fmt.Errorf("workload %d is nil", i))
			continue
		case w.Name == "":
			mErr.Errors = append(mErr.Errors, fmt.Errorf("workload %d: %w", i, ErrMissingName))
			continue
		}
		if _, ok := seen[w.Name]; ok {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("workload %q: %w", w.Name, ErrDuplicateName))
		}
		seen[w.Name] = struct{}{}
	}
	return mErr.ErrorOrNil()
}

// ValidateNodes checks that every node is named and that names are unique.
func ValidateNodes(ns []*Node) error {
	var mErr multierror.Error
	seen := make(map[string]struct{}, len(ns))
	for i, n := range ns {
		switch {
		case n == nil:
			mErr.Errors = append(mErr.Errors, fmt.Errorf("node %d is nil", i))
			continue
		case n.Name == "":
			mErr.Errors = append(mErr.Errors, fmt.Errorf("node %d: %w", i, ErrMissingName))
			continue
		}
		if _, ok := seen[n.Name]; ok {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("node %q: %w", n.Name, ErrDuplicateName))
		}
		seen[n.Name] = struct{}{}
	}
	return mErr.ErrorOrNil()
}

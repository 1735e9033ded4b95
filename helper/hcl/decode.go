// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hcl

import (
	"fmt"

	"github.com/djhaskin987/lighthouse/structs"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// DecodeVector is the decode function for map[string]float64 resource
// vectors. Each element may be a number or a string; strings are parsed with
// structs.ParseCapacity, so "ward" and "-inf" produce a ward.
func DecodeVector(expr hcl.Expression, ctx *hcl.EvalContext, val any) hcl.Diagnostics {
	srcVal, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return diags
	}

	unsuitable := func(detail string) hcl.Diagnostics {
		return append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsuitable value type",
			Detail:   detail,
			Subject:  expr.StartRange().Ptr(),
			Context:  expr.Range().Ptr(),
		})
	}

	if srcVal.IsNull() {
		return diags
	}
	if !srcVal.IsWhollyKnown() {
		return unsuitable("Unsuitable value: vector must be known")
	}

	ty := srcVal.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return unsuitable(fmt.Sprintf("Unsuitable value: expected a map but found %s", ty.FriendlyName()))
	}

	out := make(map[string]float64, srcVal.LengthInt())
	for it := srcVal.ElementIterator(); it.Next(); {
		k, v := it.Element()
		key := k.AsString()

		f, err := capacityValue(v)
		if err != nil {
			return unsuitable(fmt.Sprintf("Unsuitable capacity for %q: %s", key, err))
		}
		out[key] = f
	}

	switch dst := val.(type) {
	case *map[string]float64:
		*dst = out
	case **map[string]float64:
		*dst = &out
	default:
		return unsuitable(fmt.Sprintf("Unsuitable target type %T", val))
	}
	return diags
}

func capacityValue(v cty.Value) (float64, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("value is null")
	}
	switch v.Type() {
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f, nil
	case cty.String:
		return structs.ParseCapacity(v.AsString())
	default:
		return 0, fmt.Errorf("expected a number or string but found %s", v.Type().FriendlyName())
	}
}

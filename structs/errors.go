// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package structs

import "errors"

var (
	ErrMissingName      = errors.New("missing name")
	ErrMissingResources = errors.New("missing resource mapping")
	ErrDuplicateName    = errors.New("duplicate name")
	ErrInvalidCapacity  = errors.New("invalid capacity value")
)

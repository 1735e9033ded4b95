// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hcl

import (
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

type Parser struct {
	parser  *hclparse.Parser
	decoder *gohcl.Decoder
}

// NewParser returns a new Parser instance which supports decoding resource
// vectors (map[string]float64) by default.
func NewParser() *Parser {

	// Create our base decoder, so we can register custom decoders on it.
	decoder := &gohcl.Decoder{}

	var vec map[string]float64
	decoder.RegisterExpressionDecoder(reflect.TypeOf(vec), DecodeVector)
	decoder.RegisterExpressionDecoder(reflect.TypeOf(&vec), DecodeVector)

	return &Parser{
		decoder: decoder,
		parser:  hclparse.NewParser(),
	}
}

func (p *Parser) Parse(src []byte, dst any, filename string) hcl.Diagnostics {

	hclFile, parseDiag := p.parser.ParseHCL(src, filename)

	if parseDiag.HasErrors() {
		return parseDiag
	}

	decodeDiag := p.decoder.DecodeBody(hclFile.Body, nil, dst)
	return decodeDiag
}

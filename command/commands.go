// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"github.com/djhaskin987/lighthouse/version"
	"github.com/hashicorp/cli"
)

const (
	// EnvLighthouseCLINoColor is an env var that toggles colored UI output.
	EnvLighthouseCLINoColor = `LIGHTHOUSE_CLI_NO_COLOR`

	// EnvLighthouseCLIForceColor is an env var that forces colored UI output.
	EnvLighthouseCLIForceColor = `LIGHTHOUSE_CLI_FORCE_COLOR`
)

// NamedCommand is a interface to denote a commmand's name.
type NamedCommand interface {
	Name() string
}

// Commands returns the mapping of CLI commands for Lighthouse. The meta
// parameter lets you set meta options for all commands.
func Commands(metaPtr *Meta) map[string]cli.CommandFactory {
	if metaPtr == nil {
		metaPtr = new(Meta)
	}

	meta := *metaPtr
	if meta.Ui == nil {
		meta.Ui = &cli.BasicUi{}
	}

	return map[string]cli.CommandFactory{
		"place": func() (cli.Command, error) {
			return &PlaceCommand{
				Meta: meta,
			}, nil
		},
		"validate": func() (cli.Command, error) {
			return &ValidateCommand{
				Meta: meta,
			}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{
				Version: version.GetVersion(),
				Ui:      meta.Ui,
			}, nil
		},
	}
}

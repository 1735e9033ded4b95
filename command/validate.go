// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"fmt"
	"strings"

	"github.com/djhaskin987/lighthouse/jobspec"
	"github.com/posener/complete"
)

type ValidateCommand struct {
	Meta
}

func (c *ValidateCommand) Help() string {
	helpText := `
Usage: lighthouse validate [options] <file>

  Checks if a given cluster document is valid. The document may be HCL or,
  when the file name ends in ".json", JSON. This can be used to check for
  syntax errors, duplicate names and unknown policies before placing.

General Options:

  ` + generalOptionsUsage()
	return strings.TrimSpace(helpText)
}

func (c *ValidateCommand) Synopsis() string {
	return "Checks if a given cluster document is valid"
}

func (c *ValidateCommand) Name() string { return "validate" }

func (c *ValidateCommand) AutocompleteFlags() complete.Flags {
	return c.Meta.AutocompleteFlags(FlagSetColor)
}

func (c *ValidateCommand) AutocompleteArgs() complete.Predictor {
	return clusterFilePredictor
}

func (c *ValidateCommand) Run(args []string) int {
	flags := c.Meta.FlagSet(c.Name(), FlagSetColor)
	flags.Usage = func() { c.Ui.Output(c.Help()) }
	if err := flags.Parse(args); err != nil {
		return 1
	}

	// Check that we got exactly one file
	args = flags.Args()
	if len(args) != 1 {
		c.Ui.Error("This command takes one argument: <file>")
		c.Ui.Error(commandErrorText(c))
		return 1
	}
	file := args[0]

	cluster, err := jobspec.ParseFile(file)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error validating cluster file %s: %s", file, err))
		return 1
	}

	c.Ui.Output(formatKV([]string{
		fmt.Sprintf("Policy|%s", cluster.Policy.Type),
		fmt.Sprintf("Nodes|%d", len(cluster.Nodes)),
		fmt.Sprintf("Workloads|%d", len(cluster.Workloads)),
	}))
	c.Ui.Output("Cluster validation successful")
	return 0
}

// commandErrorText is used to easily render the same messaging across commands
// when an error is printed.
func commandErrorText(cmd NamedCommand) string {
	return fmt.Sprintf("For additional help try 'lighthouse %s -help'", cmd.Name())
}

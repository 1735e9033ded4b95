// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"fmt"
	"os"
	"maps"
	"slices"
	"strings"

	"github.com/djhaskin987/lighthouse/command"
	"github.com/djhaskin987/lighthouse/version"
	"github.com/hashicorp/cli"
	"github.com/ryanuber/columnize"
)

func main() {
	os.Exit(Run(os.Args[1:]))
}

func Run(args []string) int {
	// Create the meta object
	metaPtr := new(command.Meta)
	metaPtr.SetupUi(args)

	commands := command.Commands(metaPtr)
	cli := &cli.CLI{
		Name:                       "lighthouse",
		Version:                    version.GetVersion().FullVersionNumber(true),
		Args:                       args,
		Commands:                   commands,
		Autocomplete:               true,
		AutocompleteNoDefaultFlags: true,
		HelpFunc:                   helpFunc("lighthouse"),
		HelpWriter:                 os.Stdout,
	}

	exitCode, err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err.Error())
		return 1
	}

	return exitCode
}

// helpFunc lists the commands with their synopsis in a table.
func helpFunc(app string) cli.HelpFunc {
	return func(commands map[string]cli.CommandFactory) string {
		rows := make([]string, 0, len(commands))
		for _, name := range slices.Sorted(maps.Keys(commands)) {
			cmd, err := commands[name]()
			if err != nil {
				panic(fmt.Sprintf("failed to load %q command: %s", name, err))
			}
			rows = append(rows, fmt.Sprintf("%s|%s", name, cmd.Synopsis()))
		}

		conf := columnize.DefaultConfig()
		conf.Prefix = "    "
		conf.Glue = "      "

		var b strings.Builder
		fmt.Fprintf(&b, "Usage: %s [-version] [-help] [-autocomplete-(un)install] <command> [args]\n\n", app)
		b.WriteString("Commands:\n")
		b.WriteString(columnize.Format(rows, conf))
		return strings.TrimSpace(b.String())
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package logging

import (
	"fmt"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"
)

var _ cli.Ui = (*HcLogUI)(nil)

// HcLogUI is an implementation of cli.Ui that takes a hclogger and uses it to
// log the output. It is intended for write only use cases, such as keeping
// standard output free for machine readable results, and the Ask/AskSecret
// methods are not implemented.
type HcLogUI struct {
	Log hclog.Logger
}

// NewHcLogUI returns an HcLogUI logging through a sub-logger of log with the
// given name.
func NewHcLogUI(log hclog.Logger, name string) *HcLogUI {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &HcLogUI{Log: log.Named(name)}
}

func (l *HcLogUI) Ask(query string) (string, error) {
	return "", fmt.Errorf("Ask is not supported in this implementation")
}

func (l *HcLogUI) AskSecret(query string) (string, error) {
	return "", fmt.Errorf("AskSecret is not supported in this implementation")
}

func (l *HcLogUI) Output(message string) {
	l.Log.Info(message)
}

func (l *HcLogUI) Info(message string) {
	l.Log.Info(message)
}

func (l *HcLogUI) Error(message string) {
	l.Log.Error(message)
}

func (l *HcLogUI) Warn(message string) {
	l.Log.Warn(message)
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package testlog creates an hclog.Logger backed by testing.T to ease logging
// in tests.
package testlog

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// Logger is the methods of testing.T (or testing.B) needed by the test
// logger.
type Logger interface {
	Logf(format string, args ...interface{})
}

// Writer implements io.Writer on top of a Logger.
type Writer struct {
	t Logger
}

// NewWriter returns a Writer logging to t.
func NewWriter(t Logger) *Writer {
	return &Writer{t: t}
}

// Write to an underlying Logger. Never returns an error.
func (w *Writer) Write(p []byte) (n int, err error) {
	w.t.Logf("%s", p)
	return len(p), nil
}

// HCLogger returns a new test hc-logger.
//
// Default log level is TRACE. Set LIGHTHOUSE_TEST_LOG_LEVEL for custom log
// level.
func HCLogger(t Logger) hclog.Logger {
	level := hclog.Trace
	if envLogLevel := os.Getenv("LIGHTHOUSE_TEST_LOG_LEVEL"); envLogLevel != "" {
		level = hclog.LevelFromString(envLogLevel)
	}
	return hclog.New(&hclog.LoggerOptions{
		Level:           level,
		Output:          NewWriter(t),
		IncludeLocation: true,
	})
}

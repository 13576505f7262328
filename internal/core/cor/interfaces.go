// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor (Chain of Responsibility) provides the building blocks the
// assembly workflows are made of: commands that each perform one step, a
// shared context that carries data and errors between them, and chains that
// run commands in order. This file defines the interfaces.
package cor

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys a BaseChain pipes data through: whatever a
// command stores under CtxOut becomes the next command's CtxIn.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// ErrNotExecutable is recorded when a chain reaches a command whose
// preconditions are not met, usually because its input is missing.
var ErrNotExecutable = errors.New("command not executable")

// Context is the state shared by the commands of one workflow execution.
type Context interface {
	// SetContext sets the Go context used for cancellation and tracing.
	SetContext(context context.Context)
	// GetContext returns the current Go context.
	GetContext() context.Context

	// Add stores a value under key.
	Add(key string, value interface{}) Context
	// Get returns the value stored under key, or nil.
	Get(key string) interface{}
	// Remove deletes key.
	Remove(key string)

	// AddError records err against the command named key.
	AddError(key string, err error)
	// GetErrors returns the recorded errors keyed by command name.
	GetErrors() map[string]error
	// HasErrors reports whether any error was recorded.
	HasErrors() bool
	// Err joins the recorded errors in the order they were added, or returns
	// nil when there are none.
	Err() error

	// AddTempFile registers a file or directory to be removed by Close.
	AddTempFile(file string)
	// GetTempFiles returns the registered paths.
	GetTempFiles() []string
	// Close removes every registered temporary path. It is safe to call more
	// than once.
	Close()
}

// Executable is anything with an Execute step.
type Executable interface {
	Execute(context Context)
}

// Command is one unit of work in a workflow.
type Command interface {
	Executable

	GetName() string
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable checks the command's preconditions against the context.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command made of other commands, run in order.
type Chain interface {
	Command

	// ContinueOnFailure makes the chain run its remaining commands after one
	// of them records an error.
	ContinueOnFailure(bool) Chain
	// AddCommand appends a command.
	AddCommand(command Command) Chain
}

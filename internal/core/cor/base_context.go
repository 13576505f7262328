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
// assembly workflows are made of. This file defines `BaseContext`, the default
// implementation of the `Context` interface.
//
// A context lives for exactly one workflow execution (one scene, or one
// timeline run). Besides the data bag it owns every temporary file or
// directory the commands acquire, so a single deferred Close releases them on
// every exit path, including failures.
package cor

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

type namedError struct {
	key string
	err error
}

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data      map[string]interface{}
	errors    []namedError
	tempFiles []string
	context   context.Context
}

// NewBaseContext returns an empty context.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		tempFiles: make([]string, 0),
	}
}

// SetContext sets the Go context.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext returns the Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes the registered temporary paths, most recent first, and
// forgets them.
func (c *BaseContext) Close() {
	for i := len(c.tempFiles) - 1; i >= 0; i-- {
		file := c.tempFiles[i]
		if err := os.RemoveAll(file); err != nil {
			slog.Warn("failed to remove temporary file", slog.String("path", file), slog.Any("error", err))
		}
	}
	c.tempFiles = c.tempFiles[:0]
}

// Add stores value under key.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile registers a path for removal on Close.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

// GetTempFiles returns the registered paths.
func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records err against key. A second error for the same key
// replaces the first.
func (c *BaseContext) AddError(key string, err error) {
	for i := range c.errors {
		if c.errors[i].key == key {
			c.errors[i].err = err
			return
		}
	}
	c.errors = append(c.errors, namedError{key: key, err: err})
}

// GetErrors returns the recorded errors keyed by command name.
func (c *BaseContext) GetErrors() map[string]error {
	out := make(map[string]error, len(c.errors))
	for _, e := range c.errors {
		out[e.key] = e.err
	}
	return out
}

// Err joins the recorded errors in insertion order.
func (c *BaseContext) Err() error {
	if len(c.errors) == 0 {
		return nil
	}
	errs := make([]error, len(c.errors))
	for i, e := range c.errors {
		errs[i] = e.err
	}
	return errors.Join(errs...)
}

// Get returns the value stored under key.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes key.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether any error was recorded.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

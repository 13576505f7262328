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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines a
// command that makes a GCS object available as a local file.
//
// Logic Flow:
//  1. Receive a `cloud.GCSObject` from the context.
//  2. Resolve it through cloud.Assets: read it in place from the GCS FUSE
//     mount when one is configured, otherwise stream it into a temp file.
//  3. Track a downloaded file in the context so it is removed on Close.
//  4. Pass the local path on to the next command.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
)

// GCSToTempFile fetches a GCS object to local disk.
type GCSToTempFile struct {
	cor.BaseCommand
	assets *cloud.Assets
	dir    string // Download directory; empty uses the OS temp dir.
}

// NewGCSToTempFile creates the command.
//
// Inputs:
//   - name: The command name.
//   - assets: The asset accessor.
//   - dir: Where downloads are written.
//
// Outputs:
//   - *GCSToTempFile: The command.
func NewGCSToTempFile(name string, assets *cloud.Assets, dir string) *GCSToTempFile {
	return &GCSToTempFile{BaseCommand: *cor.NewBaseCommand(name), assets: assets, dir: dir}
}

// IsExecutable requires a *cloud.GCSObject input.
func (c *GCSToTempFile) IsExecutable(context cor.Context) bool {
	obj, ok := context.Get(c.GetInputParam()).(*cloud.GCSObject)
	return ok && obj != nil
}

// Execute implements cor.Command.
func (c *GCSToTempFile) Execute(context cor.Context) {
	msg := context.Get(c.GetInputParam()).(*cloud.GCSObject)

	path, temp, err := c.assets.Fetch(context.GetContext(), msg.URI(), c.dir)
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to fetch %s: %w", msg.URI(), err))
		return
	}
	if temp {
		context.AddTempFile(path)
	}
	slog.InfoContext(context.GetContext(), "fetched object",
		slog.String("uri", msg.URI()), slog.String("path", path), slog.Bool("temp", temp))
	c.Succeed(context, path)
}

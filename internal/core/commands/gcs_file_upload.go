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
// command for publishing a local file to a Google Cloud Storage bucket.
//
// Logic Flow:
//  1. Get the path of the local file to upload from the COR context.
//  2. Upload it to the configured bucket under its base name.
//  3. Schedule the local copy for removal when the context is closed; the
//     bucket object is now the published output.
//  4. Record the gs:// URI as the run's output URI.
package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
)

// GCSFileUpload uploads a local file to a bucket.
type GCSFileUpload struct {
	cor.BaseCommand
	assets *cloud.Assets
	bucket string
}

// NewGCSFileUpload creates the command.
//
// Inputs:
//   - name: The command name.
//   - assets: The asset accessor holding the storage client.
//   - bucket: The destination bucket.
//
// Outputs:
//   - *GCSFileUpload: The command.
func NewGCSFileUpload(name string, assets *cloud.Assets, bucket string) *GCSFileUpload {
	return &GCSFileUpload{BaseCommand: *cor.NewBaseCommand(name), assets: assets, bucket: bucket}
}

// IsExecutable requires a local path input.
func (c *GCSFileUpload) IsExecutable(context cor.Context) bool {
	path, ok := context.Get(c.GetInputParam()).(string)
	return ok && path != ""
}

// Execute implements cor.Command.
func (c *GCSFileUpload) Execute(context cor.Context) {
	path := context.Get(c.GetInputParam()).(string)
	name := filepath.Base(path)

	if err := c.assets.Upload(context.GetContext(), path, c.bucket, name); err != nil {
		c.Fail(context, fmt.Errorf("failed to upload %s: %w", path, err))
		return
	}
	context.AddTempFile(path)

	uri := cloud.GCSURI(c.bucket, name)
	slog.InfoContext(context.GetContext(), "uploaded output", slog.String("uri", uri))
	context.Add(OutputURIParam, uri)
	c.Succeed(context, uri)
}

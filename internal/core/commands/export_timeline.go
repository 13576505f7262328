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
// Responsibility (COR) pattern's Command interface. This file defines the
// command that hands a timeline to the export collaborator.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// ExportTimeline writes the timeline to a single video file. The target is
// taken from OutputPathParam when the caller set one, otherwise it is
// <workDir>/<run id>.mp4. Nothing is left at the target if export fails.
type ExportTimeline struct {
	cor.BaseCommand
	renderer media.Renderer
	workDir  string
}

// NewExportTimeline creates the command.
func NewExportTimeline(name string, renderer media.Renderer, workDir string) *ExportTimeline {
	return &ExportTimeline{BaseCommand: *cor.NewBaseCommand(name), renderer: renderer, workDir: workDir}
}

// IsExecutable requires a timeline.
func (c *ExportTimeline) IsExecutable(context cor.Context) bool {
	timeline, ok := context.Get(c.GetInputParam()).(*model.Timeline)
	return ok && timeline != nil && context.GetContext() != nil
}

func (c *ExportTimeline) target(context cor.Context, timeline *model.Timeline) string {
	if out, ok := context.Get(OutputPathParam).(string); ok && out != "" {
		return out
	}
	dir := c.workDir
	if dir == "" {
		dir = os.TempDir()
	}
	name := timeline.ID
	if name == "" {
		name = model.NewRunID("")
	}
	return filepath.Join(dir, name+".mp4")
}

// Execute implements cor.Command.
func (c *ExportTimeline) Execute(context cor.Context) {
	timeline := context.Get(c.GetInputParam()).(*model.Timeline)
	out := c.target(context, timeline)

	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.Fail(context, fmt.Errorf("failed to create output directory: %w", err))
			return
		}
	}
	if err := c.renderer.Export(context.GetContext(), timeline, out); err != nil {
		c.Fail(context, fmt.Errorf("failed to export timeline %s: %w", timeline.ID, err))
		return
	}

	slog.InfoContext(context.GetContext(), "timeline exported",
		slog.String("id", timeline.ID),
		slog.String("path", out),
		slog.Int("clips", len(timeline.Clips)),
		slog.Float64("duration", timeline.Duration))
	context.Add(OutputPathParam, out)
	context.Add(OutputURIParam, out)
	c.Succeed(context, out)
}

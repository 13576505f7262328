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
// step that encodes a finished clip with ffmpeg.
//
// Logic Flow:
// Scene sources may be temp files that the chain context removes as soon as
// the scene is done, so the clip is materialised here, while they still
// exist. The file is written under the run's work directory, named after the
// run and the scene index, and is left for the export step to join.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
)

// RenderScene encodes the scene clip to disk.
type RenderScene struct {
	sceneStep
	renderer media.Renderer
}

// NewRenderScene creates the render step.
func NewRenderScene(name string, renderer media.Renderer) *RenderScene {
	return &RenderScene{sceneStep: newSceneStep(name), renderer: renderer}
}

// IsExecutable additionally requires a clip.
func (c *RenderScene) IsExecutable(context cor.Context) bool {
	return c.sceneStep.IsExecutable(context) && c.work(context).Clip != nil
}

// Execute implements cor.Command.
func (c *RenderScene) Execute(context cor.Context) {
	work := c.work(context)
	out := media.ScenePath(work.WorkDir, work.RunID, work.Clip.Index)
	if err := c.renderer.RenderScene(context.GetContext(), work.Clip, out); err != nil {
		c.Fail(context, fmt.Errorf("failed to render %s: %w", work.Scene.Label(), err))
		return
	}
	work.Clip.RenderedPath = out
	c.Succeed(context, work)
}

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
// step that fits the visual onto the output canvas.
package commands

import (
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
)

// FitCanvas scales and center-crops the stream to the canvas size.
type FitCanvas struct {
	sceneStep
}

// NewFitCanvas creates the canvas step.
func NewFitCanvas(name string) *FitCanvas {
	return &FitCanvas{sceneStep: newSceneStep(name)}
}

// IsExecutable additionally requires a normalized stream.
func (c *FitCanvas) IsExecutable(context cor.Context) bool {
	return c.sceneStep.IsExecutable(context) && c.work(context).Stream != nil
}

// Execute implements cor.Command.
func (c *FitCanvas) Execute(context cor.Context) {
	work := c.work(context)
	stream, err := media.FitCanvas(work.Stream, work.Canvas.Width, work.Canvas.Height)
	if err != nil {
		c.Fail(context, err)
		return
	}
	work.Stream = stream
	c.Succeed(context, work)
}

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
// step that burns the scene's caption into the visual.
package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// OverlayCaption adds the caption for the whole scene. Caption problems
// degrade the caption and never fail the scene.
type OverlayCaption struct {
	sceneStep
	compositor *media.OverlayCompositor
}

// NewOverlayCaption creates the caption step.
func NewOverlayCaption(name string, compositor *media.OverlayCompositor) *OverlayCaption {
	return &OverlayCaption{sceneStep: newSceneStep(name), compositor: compositor}
}

// IsExecutable additionally requires a stream.
func (c *OverlayCaption) IsExecutable(context cor.Context) bool {
	return c.sceneStep.IsExecutable(context) && c.work(context).Stream != nil
}

// Execute implements cor.Command.
func (c *OverlayCaption) Execute(context cor.Context) {
	work := c.work(context)
	stream, outcome := c.compositor.Overlay(context.GetContext(), work.Stream, work.Scene.Caption)
	if outcome == model.CaptionReduced || outcome == model.CaptionDropped {
		slog.InfoContext(context.GetContext(), "caption degraded",
			slog.Int("scene", work.Scene.Index),
			slog.String("outcome", string(outcome)))
	}
	work.Stream = stream
	work.CaptionOutcome = outcome
	c.Succeed(context, work)
}

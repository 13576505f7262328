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
// step that matches the visual's length to the audio's.
package commands

import (
	"errors"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// NormalizeDuration loops or trims the visual to the audio duration. A
// source that turns out to be unplayable is swapped for the fallback colour
// once; an invalid target duration fails the scene.
type NormalizeDuration struct {
	sceneStep
	palette media.Palette
}

// NewNormalizeDuration creates the duration step.
func NewNormalizeDuration(name string, palette media.Palette) *NormalizeDuration {
	return &NormalizeDuration{sceneStep: newSceneStep(name), palette: palette}
}

// Execute implements cor.Command.
func (c *NormalizeDuration) Execute(context cor.Context) {
	work := c.work(context)
	stream, err := media.NormalizeDuration(work.Visual, work.Audio.Duration, work.Canvas.FrameRate)
	if errors.Is(err, model.ErrSourceUnavailable) && work.VisualOutcome != model.VisualFromFallback {
		work.UseFallback(context.GetContext(), c.palette, err)
		stream, err = media.NormalizeDuration(work.Visual, work.Audio.Duration, work.Canvas.FrameRate)
	}
	if err != nil {
		c.Fail(context, err)
		return
	}
	work.Stream = stream
	c.Succeed(context, work)
}

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
// first scene step, which makes the narration audio readable and settles the
// scene's target duration.
//
// Logic Flow:
//  1. Reject an explicitly non-positive duration before touching any file.
//  2. Fetch the audio (local path, GCS FUSE mount or a download to a temp
//     file that the chain context removes when the scene is done).
//  3. Measure the fetched file. The measured length is the target; a length
//     declared by the audio provider is only cross-checked against it and
//     fails the scene with ErrInvalidDuration when they differ by more than
//     one output frame.
//  4. A missing or unreadable track is an upstream failure and fails the
//     scene with ErrAudioUnavailable; it is never replaced or defaulted.
package commands

import (
	"fmt"
	"math"
	"strings"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// ResolveAudio acquires the scene's audio track and fixes its duration.
type ResolveAudio struct {
	sceneStep
	assets *cloud.Assets
	prober media.Prober
}

// NewResolveAudio creates the audio step.
//
// Inputs:
//   - name: The command name.
//   - assets: Resolves local and gs:// audio URIs.
//   - prober: Measures the audio file.
//
// Outputs:
//   - *ResolveAudio: The command.
func NewResolveAudio(name string, assets *cloud.Assets, prober media.Prober) *ResolveAudio {
	return &ResolveAudio{sceneStep: newSceneStep(name), assets: assets, prober: prober}
}

// Execute implements cor.Command.
func (c *ResolveAudio) Execute(context cor.Context) {
	work := c.work(context)
	ctx := context.GetContext()
	audio := work.Audio

	if audio.Duration != 0 && !model.ValidDuration(audio.Duration) {
		c.Fail(context, fmt.Errorf("%w: audio duration %v", model.ErrInvalidDuration, audio.Duration))
		return
	}
	if strings.TrimSpace(audio.URI) == "" {
		c.Fail(context, fmt.Errorf("%w: %s has no audio track", model.ErrAudioUnavailable, work.Scene.Label()))
		return
	}

	path, temp, err := c.assets.Fetch(ctx, audio.URI, work.WorkDir)
	if err != nil {
		c.Fail(context, fmt.Errorf("%w: %w", model.ErrAudioUnavailable, err))
		return
	}
	if temp {
		context.AddTempFile(path)
	}
	audio.Path = path

	measured, err := c.prober.ProbeDuration(ctx, path)
	if err != nil {
		c.Fail(context, fmt.Errorf("%w: could not probe %s: %w", model.ErrAudioUnavailable, audio.URI, err))
		return
	}
	if !model.ValidDuration(measured) {
		c.Fail(context, fmt.Errorf("%w: audio %s measured %v seconds", model.ErrInvalidDuration, audio.URI, measured))
		return
	}
	if declared := audio.Duration; declared != 0 && math.Abs(declared-measured) > frameTolerance(work.Canvas) {
		c.Fail(context, fmt.Errorf("%w: audio %s declared %v seconds but measured %v",
			model.ErrInvalidDuration, audio.URI, declared, measured))
		return
	}
	audio.Duration = measured

	work.Audio = audio
	c.Succeed(context, work)
}

// frameTolerance is one output frame, or one frame at 30 fps when the canvas
// has no frame rate.
func frameTolerance(canvas model.Canvas) float64 {
	if d := canvas.FrameInterval(); d > 0 {
		return d
	}
	return 1.0 / 30
}

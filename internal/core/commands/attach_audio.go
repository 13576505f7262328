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
// step that pairs the finished visual with the untouched audio track.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// AttachAudio builds the SceneClip. The audio is never trimmed or looped, so
// the clip is rejected if the visual drifted from it by more than a frame.
type AttachAudio struct {
	sceneStep
}

// NewAttachAudio creates the clip step.
func NewAttachAudio(name string) *AttachAudio {
	return &AttachAudio{sceneStep: newSceneStep(name)}
}

// IsExecutable additionally requires a stream.
func (c *AttachAudio) IsExecutable(context cor.Context) bool {
	return c.sceneStep.IsExecutable(context) && c.work(context).Stream != nil
}

// Execute implements cor.Command.
func (c *AttachAudio) Execute(context cor.Context) {
	work := c.work(context)
	clip := &model.SceneClip{
		Index:          work.Scene.Index,
		Speaker:        work.Scene.Speaker,
		Visual:         work.Stream,
		Audio:          work.Audio,
		VisualOutcome:  work.VisualOutcome,
		FallbackReason: work.FallbackReason,
		CaptionOutcome: work.CaptionOutcome,
	}
	if !clip.InSync() {
		c.Fail(context, fmt.Errorf("visual of %s lasts %v seconds, audio %v", work.Scene.Label(), clip.Visual.Duration, clip.Audio.Duration))
		return
	}
	if clip.Visual.Width != work.Canvas.Width || clip.Visual.Height != work.Canvas.Height {
		c.Fail(context, fmt.Errorf("visual of %s is %dx%d, canvas is %dx%d", work.Scene.Label(),
			clip.Visual.Width, clip.Visual.Height, work.Canvas.Width, work.Canvas.Height))
		return
	}
	work.Clip = clip
	c.Succeed(context, work)
}

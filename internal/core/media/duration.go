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

// Package media implements the scene assembly engine: it shapes a scene's
// visual source into a clip that matches the scene's audio in duration,
// conforms to the output canvas and optionally carries a burned-in caption,
// and joins the resulting clips into a timeline.
//
// Every operation in this package works on model.VisualStream edit plans and
// never decodes frames. Materialising a plan is the job of the Renderer,
// which translates it into an ffmpeg filter graph.
//
// This file, `duration.go`, implements duration normalization.
//
// Looping Logic:
// A video shorter than its target is repeated as whole copies, never resampled
// or seeked into mid-loop:
//
//	loops = ceil(target / source_duration)
//
// The concatenation of `loops` copies is then trimmed to the target. A source
// that is already long enough is trimmed to its leading segment. Static
// sources (images and solid colours) have no duration of their own and are
// simply held for the target.
package media

import (
	"fmt"
	"math"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// loopEpsilon absorbs floating point noise in target/source so that an exact
// multiple (e.g. 6s over a 2s source) does not gain a spurious extra copy.
const loopEpsilon = 1e-9

// LoopCount returns the number of whole copies of a source of length
// sourceDuration needed to cover target. Both values must be positive.
func LoopCount(sourceDuration float64, target float64) int {
	if sourceDuration >= target {
		return 1
	}
	return int(math.Ceil(target/sourceDuration - loopEpsilon))
}

// NormalizeDuration builds a stream whose duration equals target.
//
// Inputs:
//   - src: The visual source. Videos must carry a positive, finite duration
//     and a geometry, typically filled in by probing.
//   - target: The required duration in seconds, the scene's audio length.
//   - fps: The output frame rate. Zero keeps the source's native rate.
//
// Outputs:
//   - *model.VisualStream: The trimmed (and, for short videos, looped) plan.
//   - error: ErrInvalidDuration for a bad target, ErrSourceUnavailable for a
//     source that cannot be played.
func NormalizeDuration(src model.VisualSource, target float64, fps float64) (*model.VisualStream, error) {
	if !model.ValidDuration(target) {
		return nil, fmt.Errorf("%w: target duration %v", model.ErrInvalidDuration, target)
	}
	if src.Width <= 0 || src.Height <= 0 {
		return nil, fmt.Errorf("%w: %s source %q has no geometry", model.ErrSourceUnavailable, src.Kind, src.URI)
	}
	rate := fps
	if rate <= 0 {
		rate = src.FrameRate
	}
	out := &model.VisualStream{
		Source:    src,
		Loops:     1,
		Duration:  target,
		FrameRate: rate,
		Width:     src.Width,
		Height:    src.Height,
	}
	if src.IsStatic() {
		return out, nil
	}
	if !model.ValidDuration(src.Duration) {
		return nil, fmt.Errorf("%w: video %q has unusable duration %v", model.ErrSourceUnavailable, src.URI, src.Duration)
	}
	if src.Path == "" {
		return nil, fmt.Errorf("%w: video %q was not acquired", model.ErrSourceUnavailable, src.URI)
	}
	if out.FrameRate <= 0 {
		return nil, fmt.Errorf("%w: video %q has no frame rate", model.ErrSourceUnavailable, src.URI)
	}
	out.Loops = LoopCount(src.Duration, target)
	return out, nil
}

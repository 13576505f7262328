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

// Package model defines the core data structures for the application.
// This file, `clip.go`, contains the outputs of the engine: the per-scene
// clip, the explicit per-scene result, and the final timeline.
package model

import (
	"fmt"
	"math"
)

// VisualOutcome records which path produced a clip's visual track.
type VisualOutcome string

const (
	VisualFromSource   VisualOutcome = "source"
	VisualFromFallback VisualOutcome = "fallback"
)

// CaptionOutcome records how a caption ended up on the clip.
type CaptionOutcome string

const (
	CaptionNone    CaptionOutcome = "none"
	CaptionFull    CaptionOutcome = "full"
	CaptionReduced CaptionOutcome = "reduced"
	CaptionDropped CaptionOutcome = "dropped"
)

// SceneClip is a self-contained, canvas-conforming visual track paired with
// the scene's untouched audio track.
type SceneClip struct {
	Index          int
	Speaker        string
	Visual         *VisualStream
	Audio          AudioTrack
	VisualOutcome  VisualOutcome
	FallbackReason string // Why the fallback was used, empty otherwise.
	CaptionOutcome CaptionOutcome
	RenderedPath   string // Set once the clip has been materialised to disk.
}

// Duration is the clip length, which is the audio length by construction.
func (c *SceneClip) Duration() float64 {
	return c.Audio.Duration
}

// InSync reports whether the visual and audio durations agree within one
// frame interval.
func (c *SceneClip) InSync() bool {
	if c.Visual == nil {
		return false
	}
	return math.Abs(c.Visual.Duration-c.Audio.Duration) <= c.Visual.FrameInterval()+1e-9
}

// SceneResult is the explicit outcome of assembling one scene: either a clip
// (possibly built from the fallback visual) or the error that made the scene
// unusable.
type SceneResult struct {
	Index   int
	Speaker string
	Clip    *SceneClip
	Err     error
}

// Failed reports whether the scene produced no clip.
func (r SceneResult) Failed() bool {
	return r.Clip == nil || r.Err != nil
}

// UsedFallback reports whether the clip was built from the fallback visual.
func (r SceneResult) UsedFallback() bool {
	return r.Clip != nil && r.Clip.VisualOutcome == VisualFromFallback
}

// SkippedScene identifies a scene that was left out of a timeline.
type SkippedScene struct {
	Index   int    `json:"index"`
	Speaker string `json:"speaker"`
	Reason  string `json:"reason"`
}

func (s SkippedScene) String() string {
	return fmt.Sprintf("scene %d (%s): %s", s.Index, s.Speaker, s.Reason)
}

// Canvas is the fixed output geometry.
type Canvas struct {
	Width     int     `toml:"width" json:"width"`
	Height    int     `toml:"height" json:"height"`
	FrameRate float64 `toml:"fps" json:"fps"`
}

// FrameInterval is the duration of one output frame in seconds.
func (c Canvas) FrameInterval() float64 {
	if c.FrameRate <= 0 {
		return 0
	}
	return 1 / c.FrameRate
}

// Timeline is the ordered, duration-additive concatenation of scene clips.
// It is produced once, handed to the export step and then discarded.
type Timeline struct {
	ID       string
	Title    string
	Canvas   Canvas
	Clips    []*SceneClip
	Skipped  []SkippedScene
	Duration float64
}

// Offsets returns the start time of each clip on the timeline.
func (t *Timeline) Offsets() []float64 {
	out := make([]float64, len(t.Clips))
	var at float64
	for i, c := range t.Clips {
		out[i] = at
		at += c.Duration()
	}
	return out
}

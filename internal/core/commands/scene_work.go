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
// state shared by the scene assembly commands and the context keys used by
// the timeline commands.
//
// Logic Flow:
// A scene enters the assembly chain as a `*SceneWork` under cor.CtxIn. Each
// step reads it, fills in its part (audio, visual, stream, clip) and passes
// the same value on under cor.CtxOut, so the chain's piping hands it to the
// next step. A step that cannot recover records an error and the chain stops.
package commands

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// Keys under which the timeline commands exchange data.
const (
	ScriptParam       = "__script__"
	RunIDParam        = "__run_id__"
	SceneResultsParam = "__scene_results__"
	TimelineParam     = "__timeline__"
	OutputPathParam   = "__output_path__"
	OutputURIParam    = "__output_uri__"
	ReportParam       = "__report__"
)

// SceneWork is the state one scene accumulates on its way through the
// assembly chain.
type SceneWork struct {
	RunID   string
	Scene   *model.Scene
	Canvas  model.Canvas
	WorkDir string // Downloads and scene renders; empty uses the OS temp dir.

	Audio          model.AudioTrack
	Visual         model.VisualSource
	VisualOutcome  model.VisualOutcome
	FallbackReason string
	Stream         *model.VisualStream
	CaptionOutcome model.CaptionOutcome
	Clip           *model.SceneClip
}

// NewSceneWork starts the assembly state for scene.
func NewSceneWork(runID string, scene *model.Scene, canvas model.Canvas, workDir string) *SceneWork {
	return &SceneWork{
		RunID:          runID,
		Scene:          scene,
		Canvas:         canvas,
		WorkDir:        workDir,
		Audio:          scene.Audio,
		CaptionOutcome: model.CaptionNone,
	}
}

// UseFallback replaces the visual with the speaker's solid colour source and
// records why.
func (w *SceneWork) UseFallback(ctx context.Context, palette media.Palette, reason error) {
	w.Visual = palette.FallbackSource(w.Scene.Speaker, w.Canvas)
	w.VisualOutcome = model.VisualFromFallback
	w.FallbackReason = reason.Error()
	w.Stream = nil
	slog.WarnContext(ctx, "visual unavailable, using fallback colour",
		slog.Int("scene", w.Scene.Index),
		slog.String("speaker", w.Scene.Speaker),
		slog.String("color", w.Visual.Color.Hex()),
		slog.Any("error", reason))
}

// sceneStep is embedded by every scene assembly command.
type sceneStep struct {
	cor.BaseCommand
}

func newSceneStep(name string) sceneStep {
	return sceneStep{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable requires a *SceneWork as input.
func (s *sceneStep) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, ok := context.Get(s.GetInputParam()).(*SceneWork)
	return ok
}

func (s *sceneStep) work(context cor.Context) *SceneWork {
	return context.Get(s.GetInputParam()).(*SceneWork)
}

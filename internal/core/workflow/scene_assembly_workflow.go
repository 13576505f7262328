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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements the
// SceneAssembler, which turns one scene into one clip.
//
// Logic Flow:
//  1. resolve-audio fixes the target duration from the narration.
//  2. resolve-visual acquires the visual or substitutes the fallback colour.
//  3. normalize-duration loops or trims the visual to the target.
//  4. fit-canvas scales and crops it to the output canvas.
//  5. overlay-caption burns in the caption, degrading it if needed.
//  6. attach-audio pairs visual and audio into a SceneClip.
//  7. render-scene, when enabled, encodes the clip before its sources go away.
//
// Every scene runs in its own cor.Context, closed when Assemble returns, so
// downloaded assets never outlive their scene.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/commands"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// SceneAssembler builds scene clips.
type SceneAssembler struct {
	canvas  model.Canvas
	workDir string
	chain   *cor.BaseChain
}

// NewSceneAssembler creates the assembler.
//
// Inputs:
//   - config: Canvas, fallback palette, caption fallback font and export
//     settings.
//   - deps: The collaborators. A nil Renderer, or export.render_scenes set to
//     false, leaves rendering to the export step; sources must then still be
//     readable at export time (local files or a GCS FUSE mount).
//
// Outputs:
//   - *SceneAssembler: The assembler.
func NewSceneAssembler(config *cloud.Config, deps *Dependencies) *SceneAssembler {
	out := &SceneAssembler{canvas: config.Canvas, workDir: config.Export.WorkDir}
	palette := config.Palette()

	chain := cor.NewBaseChain("scene-assembler")
	chain.AddCommand(commands.NewResolveAudio("resolve-audio", deps.Assets, deps.Prober))
	chain.AddCommand(commands.NewResolveVisual("resolve-visual", deps.Assets, deps.Prober, deps.Footage, palette))
	chain.AddCommand(commands.NewNormalizeDuration("normalize-duration", palette))
	chain.AddCommand(commands.NewFitCanvas("fit-canvas"))
	chain.AddCommand(commands.NewOverlayCaption("overlay-caption",
		media.NewOverlayCompositor(deps.Measurer, config.Caption.FallbackFamily)))
	chain.AddCommand(commands.NewAttachAudio("attach-audio"))
	if deps.Renderer != nil && config.Export.RenderScenes {
		chain.AddCommand(commands.NewRenderScene("render-scene", deps.Renderer))
	}
	out.chain = chain
	return out
}

// Steps returns the names of the assembly steps in order.
func (s *SceneAssembler) Steps() []string {
	return s.chain.Commands()
}

// Assemble turns scene into a clip whose visual lasts exactly as long as the
// scene's audio and fits the canvas. Recoverable problems (missing footage,
// unrenderable captions) are masked; anything else is returned wrapped in
// model.ErrSceneAssembly.
//
// Inputs:
//   - ctx: Controls cancellation and carries the trace.
//   - runID: Names the scene renders of this run.
//   - scene: The scene to assemble.
//
// Outputs:
//   - *model.SceneClip: The clip, nil on error.
//   - error: Wraps model.ErrSceneAssembly and the cause.
func (s *SceneAssembler) Assemble(ctx context.Context, runID string, scene *model.Scene) (*model.SceneClip, error) {
	if scene == nil {
		return nil, fmt.Errorf("%w: nil scene", model.ErrSceneAssembly)
	}
	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)

	work := commands.NewSceneWork(runID, scene, s.canvas, s.workDir)
	chainCtx.Add(cor.CtxIn, work)
	s.chain.Execute(chainCtx)

	if err := chainCtx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrSceneAssembly, scene.Label(), err)
	}
	if work.Clip == nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrSceneAssembly, scene.Label(), errors.New("no clip produced"))
	}
	return work.Clip, nil
}

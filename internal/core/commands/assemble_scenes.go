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
// command that assembles every scene of a script.
//
// Logic Flow:
//  1. Build the scenes from the script with the configured caption options.
//  2. Assemble them one at a time, in script order, each inside its own span.
//     A scene's temp files are released before the next scene starts.
//  3. Collect an explicit SceneResult per scene. A failed scene is recorded
//     in its result and never stops the run; only cancellation does.
//  4. Publish the results for concatenation and reporting.
package commands

import (
	goctx "context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// Assembler turns one scene into a clip.
type Assembler interface {
	Assemble(ctx goctx.Context, runID string, scene *model.Scene) (*model.SceneClip, error)
}

// AssembleScenes runs the scene assembler over a script.
type AssembleScenes struct {
	cor.BaseCommand
	assembler       Assembler
	options         model.ScriptOptions
	fallbackCounter metric.Int64Counter // Scenes built from the fallback visual.
	skippedCounter  metric.Int64Counter // Scenes left out of the timeline.
}

// NewAssembleScenes creates the command.
//
// Inputs:
//   - name: The command name.
//   - assembler: Assembles a single scene.
//   - options: How script entries become scenes, captions included.
//
// Outputs:
//   - *AssembleScenes: The command.
func NewAssembleScenes(name string, assembler Assembler, options model.ScriptOptions) *AssembleScenes {
	out := &AssembleScenes{
		BaseCommand: *cor.NewBaseCommand(name),
		assembler:   assembler,
		options:     options,
	}
	out.fallbackCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.scene.fallback", out.GetName()))
	out.skippedCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.scene.skipped", out.GetName()))
	return out
}

// IsExecutable requires a script input.
func (s *AssembleScenes) IsExecutable(context cor.Context) bool {
	script, ok := context.Get(s.GetInputParam()).(*model.Script)
	return ok && script != nil && context.GetContext() != nil
}

// Execute implements cor.Command.
func (s *AssembleScenes) Execute(context cor.Context) {
	script := context.Get(s.GetInputParam()).(*model.Script)
	runID, _ := context.Get(RunIDParam).(string)
	context.Add(ScriptParam, script)

	scenes := script.BuildScenes(s.options)
	results := make([]model.SceneResult, 0, len(scenes))
	for _, scene := range scenes {
		if err := context.GetContext().Err(); err != nil {
			context.Add(SceneResultsParam, results)
			s.Fail(context, fmt.Errorf("run cancelled before %s: %w", scene.Label(), err))
			return
		}
		results = append(results, s.assemble(context.GetContext(), runID, scene))
	}

	context.Add(SceneResultsParam, results)
	s.Succeed(context, results)
}

func (s *AssembleScenes) assemble(ctx goctx.Context, runID string, scene *model.Scene) model.SceneResult {
	sceneCtx, span := s.Tracer.Start(ctx, fmt.Sprintf("%s_scene_%d", s.GetName(), scene.Index))
	defer span.End()
	span.SetAttributes(
		attribute.Int("sequence", scene.Index),
		attribute.String("speaker", scene.Speaker),
	)

	result := model.SceneResult{Index: scene.Index, Speaker: scene.Speaker}
	result.Clip, result.Err = s.assembler.Assemble(sceneCtx, runID, scene)
	if result.Err != nil {
		result.Clip = nil
		s.skippedCounter.Add(sceneCtx, 1)
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, "scene skipped")
		slog.ErrorContext(sceneCtx, "scene skipped",
			slog.Int("scene", scene.Index), slog.String("speaker", scene.Speaker), slog.Any("error", result.Err))
		return result
	}

	if result.UsedFallback() {
		s.fallbackCounter.Add(sceneCtx, 1)
	}
	span.SetAttributes(
		attribute.String("visual", string(result.Clip.VisualOutcome)),
		attribute.String("caption", string(result.Clip.CaptionOutcome)),
		attribute.Float64("duration", result.Clip.Duration()),
	)
	span.SetStatus(codes.Ok, "scene assembled")
	slog.InfoContext(sceneCtx, "scene assembled",
		slog.Int("scene", scene.Index),
		slog.String("speaker", scene.Speaker),
		slog.String("visual", string(result.Clip.VisualOutcome)),
		slog.String("caption", string(result.Clip.CaptionOutcome)),
		slog.Float64("duration", result.Clip.Duration()))
	return result
}

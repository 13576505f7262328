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
// command that removes a run's intermediate scene renders once the timeline
// has been exported (or the run has failed).
package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// WorkDirCleanup deletes the rendered scene files of a run. The exported
// timeline is never touched.
type WorkDirCleanup struct {
	cor.BaseCommand
}

// NewWorkDirCleanup creates the command.
func NewWorkDirCleanup(name string) *WorkDirCleanup {
	out := &WorkDirCleanup{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = SceneResultsParam
	return out
}

// IsExecutable requires the scene results.
func (v *WorkDirCleanup) IsExecutable(context cor.Context) bool {
	_, ok := context.Get(v.GetInputParam()).([]model.SceneResult)
	return ok
}

// Execute implements cor.Command.
func (v *WorkDirCleanup) Execute(context cor.Context) {
	results := context.Get(v.GetInputParam()).([]model.SceneResult)
	output, _ := context.Get(OutputPathParam).(string)

	removed := 0
	for _, r := range results {
		if r.Clip == nil || r.Clip.RenderedPath == "" || r.Clip.RenderedPath == output {
			continue
		}
		err := os.Remove(r.Clip.RenderedPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(context.GetContext(), "failed to remove scene render",
				slog.String("path", r.Clip.RenderedPath), slog.Any("error", err))
			continue
		}
		removed++
	}
	slog.DebugContext(context.GetContext(), "removed scene renders", slog.Int("count", removed))
	v.Succeed(context, nil)
}

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
// command that joins the assembled scenes into a timeline.
package commands

import (
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// ConcatenateTimeline builds the timeline from the scene results. When no
// scene survived it records ErrNoScenesProduced and the run stops before
// export.
type ConcatenateTimeline struct {
	cor.BaseCommand
	canvas model.Canvas
}

// NewConcatenateTimeline creates the command for the configured canvas.
func NewConcatenateTimeline(name string, canvas model.Canvas) *ConcatenateTimeline {
	return &ConcatenateTimeline{BaseCommand: *cor.NewBaseCommand(name), canvas: canvas}
}

// IsExecutable requires the scene results.
func (c *ConcatenateTimeline) IsExecutable(context cor.Context) bool {
	_, ok := context.Get(c.GetInputParam()).([]model.SceneResult)
	return ok && context.GetContext() != nil
}

// Execute implements cor.Command.
func (c *ConcatenateTimeline) Execute(context cor.Context) {
	results := context.Get(c.GetInputParam()).([]model.SceneResult)

	timeline, err := media.Concatenate(context.GetContext(), c.canvas, results)
	if err != nil {
		c.Fail(context, err)
		return
	}
	timeline.ID, _ = context.Get(RunIDParam).(string)
	if script, ok := context.Get(ScriptParam).(*model.Script); ok {
		timeline.Title = script.Title
	}

	context.Add(TimelineParam, timeline)
	c.Succeed(context, timeline)
}

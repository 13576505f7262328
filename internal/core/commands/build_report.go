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
// command that summarises a run.
package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// BuildRunReport builds the run report from the scene results, the timeline
// and the output URI found in the context. It runs after the main chain, so a
// run that failed before or during export is reported as failed.
type BuildRunReport struct {
	cor.BaseCommand
	canvas model.Canvas
}

// NewBuildRunReport creates the command.
func NewBuildRunReport(name string, canvas model.Canvas) *BuildRunReport {
	out := &BuildRunReport{BaseCommand: *cor.NewBaseCommand(name), canvas: canvas}
	out.InputParamName = SceneResultsParam
	out.OutputParamName = ReportParam
	return out
}

// IsExecutable requires the scene results.
func (c *BuildRunReport) IsExecutable(context cor.Context) bool {
	_, ok := context.Get(c.GetInputParam()).([]model.SceneResult)
	return ok
}

// Execute implements cor.Command.
func (c *BuildRunReport) Execute(context cor.Context) {
	results := context.Get(c.GetInputParam()).([]model.SceneResult)
	runID, _ := context.Get(RunIDParam).(string)
	timeline, _ := context.Get(TimelineParam).(*model.Timeline)
	var title string
	if script, ok := context.Get(ScriptParam).(*model.Script); ok {
		title = script.Title
	}

	report := model.NewRunReport(runID, title, c.canvas, results, timeline)
	if uri, ok := context.Get(OutputURIParam).(string); ok {
		report.OutputURI = uri
	}
	if context.HasErrors() {
		report.Status = model.RunFailed
	}

	attrs := []any{
		slog.String("id", report.Id),
		slog.String("title", report.Title),
		slog.String("status", report.Status),
		slog.Int("scenes", len(report.Scenes)),
		slog.Int("dropped", len(report.Dropped())),
		slog.Float64("duration", report.TotalDuration),
		slog.String("output", report.OutputURI),
	}
	if report.Status == model.RunSucceeded {
		slog.InfoContext(context.GetContext(), "run report", attrs...)
	} else {
		slog.WarnContext(context.GetContext(), "run report", attrs...)
	}
	for _, dropped := range report.Dropped() {
		slog.WarnContext(context.GetContext(), "scene dropped",
			slog.Int("scene", dropped.Index), slog.String("speaker", dropped.Speaker), slog.String("reason", dropped.Reason))
	}

	c.Succeed(context, report)
}

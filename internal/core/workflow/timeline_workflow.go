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
// timeline workflow, which turns a script into one exported short.
//
// Logic Flow:
// The main chain assembles every scene, concatenates the survivors, exports
// the timeline and, when an output bucket is configured, publishes it. It
// stops at the first failure, so nothing is exported when no scene survived.
// A second chain then always runs over whatever the first one produced: it
// builds the run report, stores it in BigQuery when a client is available,
// and removes the intermediate scene renders.
package workflow

import (
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/commands"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// TimelineWorkflow runs a script end to end. Its input is a *model.Script;
// callers may preset commands.RunIDParam and commands.OutputPathParam.
type TimelineWorkflow struct {
	cor.BaseCommand
	config    *cloud.Config
	deps      *Dependencies
	assembler *SceneAssembler
	chain     *cor.BaseChain // Assembly through publication.
	finalizer *cor.BaseChain // Reporting and cleanup, run regardless of outcome.
}

// NewTimelineWorkflow creates the workflow.
//
// Inputs:
//   - config: The application configuration.
//   - deps: The collaborators.
//
// Outputs:
//   - *TimelineWorkflow: The workflow.
func NewTimelineWorkflow(config *cloud.Config, deps *Dependencies) *TimelineWorkflow {
	out := &TimelineWorkflow{
		BaseCommand: *cor.NewBaseCommand("timeline-workflow"),
		config:      config,
		deps:        deps,
		assembler:   NewSceneAssembler(config, deps),
	}
	out.initializeChain()
	return out
}

func (t *TimelineWorkflow) initializeChain() {
	steps := cor.NewBaseChain(t.GetName())
	steps.AddCommand(commands.NewAssembleScenes("assemble-scenes", t.assembler, t.config.ScriptOptions()))
	steps.AddCommand(commands.NewConcatenateTimeline("concatenate-timeline", t.config.Canvas))
	steps.AddCommand(commands.NewExportTimeline("export-timeline", t.deps.Renderer, t.config.Export.WorkDir))
	if t.config.Storage.OutputBucket != "" {
		steps.AddCommand(commands.NewGCSFileUpload("gcs-file-upload", t.deps.Assets, t.config.Storage.OutputBucket))
	}

	finalizer := cor.NewBaseChain(t.GetName() + "-finalizer")
	finalizer.ContinueOnFailure(true)
	finalizer.AddCommand(commands.NewBuildRunReport("build-run-report", t.config.Canvas))
	if t.deps.BigQuery != nil {
		finalizer.AddCommand(commands.NewReportPersistToBigQuery(
			"write-to-bigquery",
			t.deps.BigQuery,
			t.config.BigQueryDataSource.DatasetName,
			t.config.BigQueryDataSource.ReportTable))
	}
	finalizer.AddCommand(commands.NewWorkDirCleanup("cleanup-work-dir"))

	t.chain = steps
	t.finalizer = finalizer
}

// Steps returns the names of the main chain's commands in order.
func (t *TimelineWorkflow) Steps() []string {
	return t.chain.Commands()
}

// IsExecutable requires a script input.
func (t *TimelineWorkflow) IsExecutable(context cor.Context) bool {
	script, ok := context.Get(t.GetInputParam()).(*model.Script)
	return ok && script != nil && context.GetContext() != nil
}

// Execute runs the workflow. The run report is left under
// commands.ReportParam and cor.CtxOut.
//
// Inputs:
//   - context: The context for this run, holding the script under cor.CtxIn.
func (t *TimelineWorkflow) Execute(context cor.Context) {
	if id, ok := context.Get(commands.RunIDParam).(string); !ok || id == "" {
		context.Add(commands.RunIDParam, model.NewRunID(""))
	}

	t.chain.Execute(context)

	if context.Get(commands.SceneResultsParam) == nil {
		return
	}
	t.finalizer.Execute(context)
	if report := context.Get(commands.ReportParam); report != nil {
		context.Add(cor.CtxOut, report)
	}
}

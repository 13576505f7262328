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
// workflow triggered by a script upload notification.
package workflow

import (
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/commands"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
)

// ScriptTriggerWorkflow reads the script named by a GCS notification and
// runs the timeline workflow on it. The run ID is derived from the object
// URI, so a redelivered notification produces the same run ID.
type ScriptTriggerWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// NewScriptTriggerWorkflow creates the workflow.
//
// Inputs:
//   - config: The application configuration; storage.script_bucket limits
//     the objects accepted.
//   - deps: The collaborators.
//
// Outputs:
//   - *ScriptTriggerWorkflow: The workflow.
func NewScriptTriggerWorkflow(config *cloud.Config, deps *Dependencies) *ScriptTriggerWorkflow {
	out := &ScriptTriggerWorkflow{BaseCommand: *cor.NewBaseCommand("script-trigger-workflow")}

	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(commands.NewScriptTriggerToGCSObject("script-trigger-to-gcs-object", config.Storage.ScriptBucket))
	chain.AddCommand(commands.NewGCSToTempFile("gcs-to-temp-file", deps.Assets, config.Export.WorkDir))
	chain.AddCommand(commands.NewScriptJsonToStruct("script-json-to-struct"))
	chain.AddCommand(NewTimelineWorkflow(config, deps))
	out.chain = chain
	return out
}

// IsExecutable requires the raw notification text.
func (s *ScriptTriggerWorkflow) IsExecutable(context cor.Context) bool {
	_, ok := context.Get(s.GetInputParam()).(string)
	return ok && context.GetContext() != nil
}

// Execute runs the workflow.
func (s *ScriptTriggerWorkflow) Execute(context cor.Context) {
	s.chain.Execute(context)
}

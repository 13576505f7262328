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
// command that reads a script document into a `model.Script`.
package commands

import (
	"fmt"
	"os"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// ScriptJsonToStruct parses the script file at its input path. The script is
// stored under ScriptParam as well as passed on.
type ScriptJsonToStruct struct {
	cor.BaseCommand
}

// NewScriptJsonToStruct creates the command.
func NewScriptJsonToStruct(name string) *ScriptJsonToStruct {
	return &ScriptJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable requires a file path input.
func (s *ScriptJsonToStruct) IsExecutable(context cor.Context) bool {
	in, ok := context.Get(s.GetInputParam()).(string)
	return ok && in != ""
}

// Execute implements cor.Command.
func (s *ScriptJsonToStruct) Execute(context cor.Context) {
	in := context.Get(s.GetInputParam()).(string)

	data, err := os.ReadFile(in)
	if err != nil {
		s.Fail(context, fmt.Errorf("failed to read script: %w", err))
		return
	}
	doc, err := model.ParseScript(data)
	if err != nil {
		s.Fail(context, err)
		return
	}

	context.Add(ScriptParam, doc)
	s.Succeed(context, doc)
}

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
// command that stores a run report in BigQuery.
package commands

import (
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// ReportPersistToBigQuery inserts the run report into dataset.table.
type ReportPersistToBigQuery struct {
	cor.BaseCommand
	client  *bigquery.Client
	dataset string
	table   string
}

// NewReportPersistToBigQuery creates the command.
//
// Inputs:
//   - name: The command name.
//   - client: The BigQuery client.
//   - dataset: The dataset holding the report table.
//   - table: The report table.
//
// Outputs:
//   - *ReportPersistToBigQuery: The command.
func NewReportPersistToBigQuery(name string, client *bigquery.Client, dataset string, table string) *ReportPersistToBigQuery {
	out := &ReportPersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), client: client, dataset: dataset, table: table}
	out.InputParamName = ReportParam
	return out
}

// IsExecutable requires a report.
func (s *ReportPersistToBigQuery) IsExecutable(context cor.Context) bool {
	report, ok := context.Get(s.GetInputParam()).(*model.RunReport)
	return ok && report != nil && s.client != nil
}

// Execute implements cor.Command.
func (s *ReportPersistToBigQuery) Execute(context cor.Context) {
	report := context.Get(s.GetInputParam()).(*model.RunReport)

	i := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := i.Put(context.GetContext(), report); err != nil {
		s.Fail(context, fmt.Errorf("bigquery insert failed for run %s: %w", report.Id, err))
		return
	}

	slog.InfoContext(context.GetContext(), "persisted run report",
		slog.String("id", report.Id), slog.String("table", fmt.Sprintf("%s.%s", s.dataset, s.table)))
	s.Succeed(context, nil)
}

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

// Package services contains the business logic for reading run reports.
// This file, `queries.go`, keeps the BigQuery SQL used by the ReportService.
// Table names are injected with fmt.Sprintf; values are always bound as
// named query parameters.
package services

const (
	// QryGetReport returns the newest report row for a run. A redelivered
	// trigger writes a second row under the same id, so the query orders by
	// create_date and keeps one.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the report table.
	// Parameters:
	// - `@id`: The run id.
	QryGetReport = "SELECT * FROM `%s` WHERE id = @id ORDER BY create_date DESC LIMIT 1"

	// QryListReports returns the most recent reports, newest first.
	QryListReports = "SELECT * FROM `%s` ORDER BY create_date DESC LIMIT @limit"

	// QryStatusCounts groups runs by final status.
	QryStatusCounts = "SELECT status, COUNT(*) AS runs, IFNULL(AVG(total_duration), 0) AS avg_duration FROM `%s` GROUP BY status ORDER BY status"

	// QryDroppedBySpeaker unnests the scene rows of every report and counts
	// skipped scenes per character, which points at missing footage or audio.
	QryDroppedBySpeaker = "SELECT s.speaker AS speaker, COUNT(*) AS dropped FROM `%s`, UNNEST(scenes) AS s WHERE s.status = 'skipped' GROUP BY speaker ORDER BY dropped DESC"
)

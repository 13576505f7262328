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

// Package model defines the core data structures for the application.
// This file, `report.go`, contains the run report: the persisted record of
// one timeline build. It lists every scene with the path that produced it,
// including the scenes that were dropped and why, so a partial run is always
// visible to the operator. Reports are written to BigQuery and returned by
// the HTTP API.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Scene statuses used in reports.
const (
	SceneIncluded = "included"
	SceneFallback = "fallback"
	SceneSkipped  = "skipped"
)

// Run statuses used in reports.
const (
	RunSucceeded = "succeeded"
	RunPartial   = "partial"
	RunFailed    = "failed"
)

// SceneReport is one row of a run report.
type SceneReport struct {
	Index    int     `json:"index" bigquery:"index"`
	Speaker  string  `json:"speaker" bigquery:"speaker"`
	Status   string  `json:"status" bigquery:"status"`
	Duration float64 `json:"duration" bigquery:"duration"`
	Caption  string  `json:"caption" bigquery:"caption"`
	Reason   string  `json:"reason,omitempty" bigquery:"reason"`
}

// RunReport is the persisted summary of one timeline build.
type RunReport struct {
	Id            string        `json:"id" bigquery:"id"`
	Title         string        `json:"title" bigquery:"title"`
	CreateDate    time.Time     `json:"create_date" bigquery:"create_date"`
	Canvas        string        `json:"canvas" bigquery:"canvas"`
	Status        string        `json:"status" bigquery:"status"`
	TotalDuration float64       `json:"total_duration" bigquery:"total_duration"`
	OutputURI     string        `json:"output_uri,omitempty" bigquery:"output_uri"`
	Scenes        []SceneReport `json:"scenes" bigquery:"scenes"`
}

// NewRunID returns the identifier of a run. Runs triggered for a named script
// get a stable UUIDv5 so that a redelivered trigger maps to the same report;
// anonymous runs get a random one.
func NewRunID(name string) string {
	if name == "" {
		return uuid.New().String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// NewRunReport builds the report for a run from its per-scene results and,
// when concatenation succeeded, the timeline.
func NewRunReport(id string, title string, canvas Canvas, results []SceneResult, timeline *Timeline) *RunReport {
	out := &RunReport{
		Id:         id,
		Title:      title,
		CreateDate: time.Now(),
		Canvas:     fmt.Sprintf("%dx%d", canvas.Width, canvas.Height),
		Scenes:     make([]SceneReport, 0, len(results)),
	}
	skipped := 0
	for _, r := range results {
		row := SceneReport{Index: r.Index, Speaker: r.Speaker}
		switch {
		case r.Failed():
			skipped++
			row.Status = SceneSkipped
			if r.Err != nil {
				row.Reason = r.Err.Error()
			}
		case r.UsedFallback():
			row.Status = SceneFallback
			row.Reason = r.Clip.FallbackReason
		default:
			row.Status = SceneIncluded
		}
		if r.Clip != nil {
			row.Duration = r.Clip.Duration()
			row.Caption = string(r.Clip.CaptionOutcome)
		}
		out.Scenes = append(out.Scenes, row)
	}
	switch {
	case timeline == nil:
		out.Status = RunFailed
	case skipped > 0:
		out.Status = RunPartial
	default:
		out.Status = RunSucceeded
	}
	if timeline != nil {
		out.TotalDuration = timeline.Duration
	}
	return out
}

// Dropped returns the rows of scenes that were left out of the timeline.
func (r *RunReport) Dropped() []SceneReport {
	var out []SceneReport
	for _, s := range r.Scenes {
		if s.Status == SceneSkipped {
			out = append(out, s)
		}
	}
	return out
}

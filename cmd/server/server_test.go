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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/commands"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/services"
	test "github.com/jaycherian/gcp-go-shorts-assembly/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeReports struct {
	reports map[string]*model.RunReport
	signed  []string
}

func (f *fakeReports) Get(_ context.Context, id string) (*model.RunReport, error) {
	if r, ok := f.reports[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %s", services.ErrReportNotFound, id)
}

func (f *fakeReports) List(_ context.Context, limit int) ([]model.RunReport, error) {
	out := make([]model.RunReport, 0, len(f.reports))
	for _, r := range f.reports {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReports) Stats(context.Context) (*services.RunStats, error) {
	return &services.RunStats{
		Runs:     int64(len(f.reports)),
		ByStatus: []services.StatusCount{{Status: model.RunSucceeded, Runs: int64(len(f.reports))}},
	}, nil
}

func (f *fakeReports) GenerateSignedURL(_ context.Context, uri string, _ time.Duration) (string, error) {
	f.signed = append(f.signed, uri)
	return "https://signed.example/" + uri, nil
}

type fakeFootage []string

func (f fakeFootage) List(context.Context) ([]string, error) { return f, nil }

// fakeTimeline stands in for the timeline workflow.
type fakeTimeline struct {
	*cor.BaseCommand
	run func(context cor.Context)
}

func (f *fakeTimeline) Execute(context cor.Context) { f.run(context) }

func newServer(t *testing.T, run func(cor.Context)) (*gin.Engine, *fakeReports) {
	t.Helper()
	reports := &fakeReports{reports: map[string]*model.RunReport{
		"done":  {Id: "done", Status: model.RunSucceeded, OutputURI: "gs://shorts-out/done.mp4"},
		"local": {Id: "local", Status: model.RunSucceeded},
	}}
	s := &StateManager{
		timeline: &fakeTimeline{BaseCommand: cor.NewBaseCommand("timeline-workflow"), run: run},
		reports:  reports,
	}
	return NewRouter(cloud.Server{}, "test", s), reports
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	r.ServeHTTP(w, req)
	return w
}

func TestPostTimelineRunsWorkflow(t *testing.T) {
	var got *model.Script
	var runID string
	r, _ := newServer(t, func(c cor.Context) {
		got = c.Get(cor.CtxIn).(*model.Script)
		runID = c.Get(commands.RunIDParam).(string)
		report := &model.RunReport{Id: runID, Title: got.Title, Status: model.RunSucceeded}
		c.Add(commands.ReportParam, report)
		c.Add(cor.CtxOut, report)
	})

	w := do(r, http.MethodPost, "/api/v1/timelines", test.GetTestScriptJSON())
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, got)
	assert.Len(t, got.Scenes, len(model.GetExampleScript().Scenes))
	assert.NotEmpty(t, runID)

	var report model.RunReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, runID, report.Id)
	assert.Equal(t, model.RunSucceeded, report.Status)
}

func TestPostTimelineRejectsBadScript(t *testing.T) {
	ran := false
	r, _ := newServer(t, func(cor.Context) { ran = true })

	w := do(r, http.MethodPost, "/api/v1/timelines", `{"title": "empty", "scenes": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPost, "/api/v1/timelines", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, ran)
}

func TestPostTimelineNoScenesProduced(t *testing.T) {
	r, _ := newServer(t, func(c cor.Context) {
		c.Add(commands.ReportParam, &model.RunReport{Status: model.RunFailed})
		c.AddError("concatenate-timeline", fmt.Errorf("%w: all 2 scenes skipped", model.ErrNoScenesProduced))
	})

	w := do(r, http.MethodPost, "/api/v1/timelines", test.GetTestScriptJSON())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), model.RunFailed)
}

func TestPostTimelineInternalFailure(t *testing.T) {
	r, _ := newServer(t, func(c cor.Context) {
		c.AddError("export-timeline", fmt.Errorf("ffmpeg exited"))
	})
	w := do(r, http.MethodPost, "/api/v1/timelines", test.GetTestScriptJSON())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetTimelineReports(t *testing.T) {
	r, reports := newServer(t, nil)

	w := do(r, http.MethodGet, "/api/v1/timelines/done", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"done"`)

	w = do(r, http.MethodGet, "/api/v1/timelines/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/v1/timelines?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodGet, "/api/v1/timelines?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/timelines/done/stream", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://signed.example/gs://shorts-out/done.mp4")
	assert.Equal(t, []string{"gs://shorts-out/done.mp4"}, reports.signed)

	w = do(r, http.MethodGet, "/api/v1/timelines/local/stream", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(r, http.MethodGet, "/api/v1/timelines/missing/stream", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFootageAndStats(t *testing.T) {
	r, _ := newServer(t, nil)
	w := do(r, http.MethodGet, "/api/v1/footage", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	s := &StateManager{reports: &fakeReports{}, footage: fakeFootage{"Cappuccina", "Tung Tung Sahur"}}
	r = NewRouter(cloud.Server{}, "test", s)
	w = do(r, http.MethodGet, "/api/v1/footage", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Cappuccina", "Tung Tung Sahur"]`, w.Body.String())

	w = do(r, http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"runs":0`)
}

func TestRateLimit(t *testing.T) {
	s := &StateManager{reports: &fakeReports{}}
	r := NewRouter(cloud.Server{RequestsPerSecond: 0.001, Burst: 1}, "test", s)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/stats", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/api/v1/stats", "").Code)
}

func TestAckTerminal(t *testing.T) {
	assert.True(t, AckTerminal(fmt.Errorf("%w: gs://b/readme.txt", commands.ErrNotAScript)))
	assert.True(t, AckTerminal(fmt.Errorf("%w: bad json", model.ErrInvalidScript)))
	assert.True(t, AckTerminal(fmt.Errorf("run: %w", model.ErrNoScenesProduced)))
	assert.False(t, AckTerminal(fmt.Errorf("%w: ffmpeg exited", model.ErrSceneAssembly)))
	assert.False(t, AckTerminal(context.DeadlineExceeded))
}

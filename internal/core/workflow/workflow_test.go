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

// Package workflow_test contains tests for the assembly workflows. The
// collaborators that would run ffprobe or ffmpeg are replaced with fakes, and
// every asset is a local file, so no Google Cloud project is needed.
package workflow_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/workflow"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/telemetry"
	test "github.com/jaycherian/gcp-go-shorts-assembly/internal/testutil"
)

const tName = "github.com/jaycherian/gcp-go-shorts-assembly/tests/workflow"

var (
	ctx    context.Context
	config *cloud.Config

	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	config = test.GetConfig()
	if err := telemetry.SetupLogging(config.Application.LogLevel); err != nil {
		panic(err)
	}
	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		panic(err)
	}

	logger.Info("completed test setup")
	exitCode := m.Run()

	if err := shutdown(ctx); err != nil {
		logger.Error("failed to shutdown telemetry", "error", err)
	}
	os.Exit(exitCode)
}

// fakeProber describes files by base name.
type fakeProber struct {
	visuals   map[string]model.VisualSource
	durations map[string]float64
}

func (p *fakeProber) ProbeVisual(_ context.Context, path string) (model.VisualSource, error) {
	v, ok := p.visuals[filepath.Base(path)]
	if !ok {
		return model.VisualSource{}, fmt.Errorf("%w: cannot decode %s", model.ErrSourceUnavailable, path)
	}
	return v, nil
}

func (p *fakeProber) ProbeDuration(_ context.Context, path string) (float64, error) {
	d, ok := p.durations[filepath.Base(path)]
	if !ok {
		return 0, fmt.Errorf("cannot decode %s", path)
	}
	return d, nil
}

// fakeRenderer records what would have been encoded and writes marker files.
type fakeRenderer struct {
	scenes    []*model.SceneClip
	timelines []*model.Timeline
	outputs   []string
}

func (r *fakeRenderer) RenderScene(_ context.Context, clip *model.SceneClip, out string) error {
	r.scenes = append(r.scenes, clip)
	return os.WriteFile(out, []byte("scene"), 0o644)
}

func (r *fakeRenderer) Export(_ context.Context, timeline *model.Timeline, out string) error {
	r.timelines = append(r.timelines, timeline)
	r.outputs = append(r.outputs, out)
	return os.WriteFile(out, []byte("timeline"), 0o644)
}

// fixture is a scratch directory with narration, footage and a work dir.
type fixture struct {
	dir      string
	audio    string
	footage  string
	work     string
	prober   *fakeProber
	renderer *fakeRenderer
	config   *cloud.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		dir:      t.TempDir(),
		prober:   &fakeProber{visuals: map[string]model.VisualSource{}, durations: map[string]float64{}},
		renderer: &fakeRenderer{},
	}
	f.audio = filepath.Join(f.dir, "audio")
	f.footage = filepath.Join(f.dir, "footage")
	f.work = filepath.Join(f.dir, "work")
	for _, d := range []string{f.audio, f.footage, f.work} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	cfg := *config
	cfg.Caption.Style.FontFile = ""
	cfg.Export.WorkDir = f.work
	cfg.Export.RenderScenes = true
	cfg.Footage = cloud.FootageConfig{Dir: f.footage, Extension: ".mp4"}
	cfg.Storage = cloud.Storage{}
	f.config = &cfg
	return f
}

// addAudio creates a narration file of the given probed length.
func (f *fixture) addAudio(t *testing.T, name string, seconds float64) string {
	t.Helper()
	path := filepath.Join(f.audio, name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.prober.durations[name] = seconds
	return path
}

// addFootage creates a footage file for speaker described as src.
func (f *fixture) addFootage(t *testing.T, speaker string, src model.VisualSource) string {
	t.Helper()
	library := cloud.NewFootageLibrary(f.config.Footage, cloud.NewAssets(nil, ""))
	path := library.URI(speaker)
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.prober.visuals[filepath.Base(path)] = src
	return path
}

func (f *fixture) deps() *workflow.Dependencies {
	assets := cloud.NewAssets(nil, "")
	return &workflow.Dependencies{
		Assets:   assets,
		Prober:   f.prober,
		Measurer: media.NewFontMeasurer(),
		Renderer: f.renderer,
		Footage:  cloud.NewFootageLibrary(f.config.Footage, assets),
	}
}

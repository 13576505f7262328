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

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

var (
	testCanvas  = model.Canvas{Width: 1080, Height: 1920, FrameRate: 30}
	testPalette = media.Palette{
		Colors:  map[string]model.RGB{"Tung Tung Sahur": {R: 139, G: 69, B: 19}},
		Default: model.RGB{R: 50, G: 50, B: 50},
	}
)

// fakeProber answers from tables keyed by file base name.
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

// fakeRenderer writes a marker file instead of running ffmpeg.
type fakeRenderer struct {
	scenes  []string
	exports []string
	err     error
}

func (r *fakeRenderer) RenderScene(_ context.Context, _ *model.SceneClip, out string) error {
	if r.err != nil {
		return r.err
	}
	r.scenes = append(r.scenes, out)
	return os.WriteFile(out, []byte("scene"), 0o644)
}

func (r *fakeRenderer) Export(_ context.Context, _ *model.Timeline, out string) error {
	if r.err != nil {
		return r.err
	}
	r.exports = append(r.exports, out)
	return os.WriteFile(out, []byte("timeline"), 0o644)
}

func touch(t *testing.T, dir string, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return path
}

func newChainContext(in interface{}) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, in)
	return ctx
}

func newWork(t *testing.T, scene *model.Scene) *SceneWork {
	return NewSceneWork("run", scene, testCanvas, t.TempDir())
}

func TestResolveAudioAcceptsDeclaredDurationWithinOneFrame(t *testing.T) {
	dir := t.TempDir()
	audio := touch(t, dir, "line.mp3")
	work := newWork(t, &model.Scene{Index: 1, Audio: model.AudioTrack{URI: audio, Duration: 7}})
	ctx := newChainContext(work)

	prober := &fakeProber{durations: map[string]float64{"line.mp3": 7.02}}
	cmd := NewResolveAudio("resolve-audio", cloud.NewAssets(nil, ""), prober)
	require.True(t, cmd.IsExecutable(ctx))
	cmd.Execute(ctx)

	require.NoError(t, ctx.Err())
	assert.Equal(t, 7.02, work.Audio.Duration, "the measured length is the target")
	assert.Equal(t, audio, work.Audio.Path)
	assert.Same(t, work, ctx.Get(cor.CtxOut))
	assert.Empty(t, ctx.GetTempFiles())
}

func TestResolveAudioMeasuresMissingDuration(t *testing.T) {
	dir := t.TempDir()
	audio := touch(t, dir, "line.mp3")
	work := newWork(t, &model.Scene{Index: 1, Audio: model.AudioTrack{URI: audio}})
	ctx := newChainContext(work)

	prober := &fakeProber{durations: map[string]float64{"line.mp3": 2.5}}
	NewResolveAudio("resolve-audio", cloud.NewAssets(nil, ""), prober).Execute(ctx)

	require.NoError(t, ctx.Err())
	assert.Equal(t, 2.5, work.Audio.Duration)
	assert.Zero(t, work.Scene.Audio.Duration, "the scene itself is not modified")
}

func TestResolveAudioRejectsDeclaredDurationThatDisagreesWithFile(t *testing.T) {
	dir := t.TempDir()
	audio := touch(t, dir, "line.mp3")
	work := newWork(t, &model.Scene{Index: 1, Audio: model.AudioTrack{URI: audio, Duration: 3}})
	ctx := newChainContext(work)

	prober := &fakeProber{durations: map[string]float64{"line.mp3": 5}}
	NewResolveAudio("resolve-audio", cloud.NewAssets(nil, ""), prober).Execute(ctx)

	err := ctx.GetErrors()["resolve-audio"]
	assert.ErrorIs(t, err, model.ErrInvalidDuration)
	assert.ErrorContains(t, err, "declared 3")
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestResolveAudioFailures(t *testing.T) {
	dir := t.TempDir()
	audio := touch(t, dir, "line.mp3")
	silent := touch(t, dir, "silent.mp3")
	prober := &fakeProber{durations: map[string]float64{"silent.mp3": 0}}

	tests := []struct {
		name  string
		track model.AudioTrack
		want  error
	}{
		{"negative duration", model.AudioTrack{URI: audio, Duration: -1}, model.ErrInvalidDuration},
		{"no uri", model.AudioTrack{}, model.ErrAudioUnavailable},
		{"missing file", model.AudioTrack{URI: filepath.Join(dir, "gone.mp3"), Duration: 3}, model.ErrAudioUnavailable},
		{"declared but unmeasurable", model.AudioTrack{URI: audio, Duration: 3}, model.ErrAudioUnavailable},
		{"unreadable", model.AudioTrack{URI: audio}, model.ErrAudioUnavailable},
		{"zero length", model.AudioTrack{URI: silent}, model.ErrInvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newChainContext(newWork(t, &model.Scene{Index: 1, Audio: tt.track}))
			cmd := NewResolveAudio("resolve-audio", cloud.NewAssets(nil, ""), prober)
			cmd.Execute(ctx)
			assert.ErrorIs(t, ctx.GetErrors()["resolve-audio"], tt.want)
			assert.Nil(t, ctx.Get(cor.CtxOut))
		})
	}
}

func TestResolveVisualProbesSource(t *testing.T) {
	dir := t.TempDir()
	clip := touch(t, dir, "clip.mp4")
	prober := &fakeProber{visuals: map[string]model.VisualSource{
		"clip.mp4": {Kind: model.VisualVideo, Duration: 2, Width: 1920, Height: 1080, FrameRate: 25},
	}}
	work := newWork(t, &model.Scene{Index: 1, Speaker: "Tung Tung Sahur", Visual: &model.VisualSource{URI: clip}})
	ctx := newChainContext(work)

	NewResolveVisual("resolve-visual", cloud.NewAssets(nil, ""), prober, nil, testPalette).Execute(ctx)

	require.NoError(t, ctx.Err())
	assert.Equal(t, model.VisualFromSource, work.VisualOutcome)
	assert.Equal(t, clip, work.Visual.Path)
	assert.Equal(t, clip, work.Visual.URI)
	assert.Equal(t, 2.0, work.Visual.Duration)
}

func TestResolveVisualUsesFootageLibrary(t *testing.T) {
	dir := t.TempDir()
	footage := touch(t, dir, "Tung_Tung_Sahur.mp4")
	prober := &fakeProber{visuals: map[string]model.VisualSource{
		"Tung_Tung_Sahur.mp4": {Kind: model.VisualVideo, Duration: 4, Width: 720, Height: 1280, FrameRate: 30},
	}}
	assets := cloud.NewAssets(nil, "")
	library := cloud.NewFootageLibrary(cloud.FootageConfig{Dir: dir, Extension: "mp4"}, assets)
	work := newWork(t, &model.Scene{Index: 2, Speaker: "Tung Tung Sahur"})
	ctx := newChainContext(work)

	NewResolveVisual("resolve-visual", assets, prober, library, testPalette).Execute(ctx)

	require.NoError(t, ctx.Err())
	assert.Equal(t, model.VisualFromSource, work.VisualOutcome)
	assert.Equal(t, footage, work.Visual.Path)
}

func TestResolveVisualFallsBack(t *testing.T) {
	dir := t.TempDir()
	broken := touch(t, dir, "broken.mp4")
	assets := cloud.NewAssets(nil, "")
	library := cloud.NewFootageLibrary(cloud.FootageConfig{Dir: dir, Extension: ".mp4"}, assets)

	tests := []struct {
		name    string
		speaker string
		visual  *model.VisualSource
		color   model.RGB
	}{
		{"missing file", "Tung Tung Sahur", &model.VisualSource{URI: filepath.Join(dir, "gone.mp4")}, model.RGB{R: 139, G: 69, B: 19}},
		{"undecodable", "Tung Tung Sahur", &model.VisualSource{URI: broken}, model.RGB{R: 139, G: 69, B: 19}},
		{"no footage for unknown speaker", "Nobody", nil, model.RGB{R: 50, G: 50, B: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work := newWork(t, &model.Scene{Index: 1, Speaker: tt.speaker, Visual: tt.visual})
			ctx := newChainContext(work)
			NewResolveVisual("resolve-visual", assets, &fakeProber{}, library, testPalette).Execute(ctx)

			require.NoError(t, ctx.Err())
			assert.Equal(t, model.VisualFromFallback, work.VisualOutcome)
			assert.Equal(t, model.VisualColor, work.Visual.Kind)
			assert.Equal(t, tt.color, work.Visual.Color)
			assert.Equal(t, testCanvas.Width, work.Visual.Width)
			assert.Equal(t, testCanvas.Height, work.Visual.Height)
			assert.NotEmpty(t, work.FallbackReason)
		})
	}
}

func TestResolveVisualColorSourceTakesCanvasSize(t *testing.T) {
	work := newWork(t, &model.Scene{Index: 1, Visual: &model.VisualSource{Kind: model.VisualColor, Color: model.RGB{R: 1}}})
	ctx := newChainContext(work)
	NewResolveVisual("resolve-visual", cloud.NewAssets(nil, ""), &fakeProber{}, nil, testPalette).Execute(ctx)

	assert.Equal(t, model.VisualFromSource, work.VisualOutcome)
	assert.Equal(t, 1080, work.Visual.Width)
	assert.Equal(t, 1920, work.Visual.Height)
}

func TestNormalizeDurationRetriesWithFallback(t *testing.T) {
	work := newWork(t, &model.Scene{Index: 1, Speaker: "Tung Tung Sahur"})
	work.Audio = model.AudioTrack{Path: "a.mp3", Duration: 7}
	work.Visual = model.VisualSource{Kind: model.VisualVideo, Path: "v.mp4", Width: 1920, Height: 1080}
	work.VisualOutcome = model.VisualFromSource
	ctx := newChainContext(work)

	NewNormalizeDuration("normalize-duration", testPalette).Execute(ctx)

	require.NoError(t, ctx.Err())
	assert.Equal(t, model.VisualFromFallback, work.VisualOutcome)
	require.NotNil(t, work.Stream)
	assert.Equal(t, 7.0, work.Stream.Duration)
	assert.Equal(t, model.VisualColor, work.Stream.Source.Kind)
}

func TestNormalizeDurationInvalidTargetFails(t *testing.T) {
	work := newWork(t, &model.Scene{Index: 1})
	work.Visual = testPalette.FallbackSource("", testCanvas)
	ctx := newChainContext(work)

	NewNormalizeDuration("normalize-duration", testPalette).Execute(ctx)

	assert.ErrorIs(t, ctx.Err(), model.ErrInvalidDuration)
	assert.Nil(t, work.Stream)
}

func TestSceneStepsProduceInSyncClip(t *testing.T) {
	work := newWork(t, &model.Scene{Index: 3, Speaker: "Tung Tung Sahur"})
	work.Audio = model.AudioTrack{Path: "a.mp3", Duration: 7}
	work.Visual = model.VisualSource{Kind: model.VisualVideo, Path: "v.mp4", Duration: 2, Width: 1920, Height: 1080, FrameRate: 30}
	work.VisualOutcome = model.VisualFromSource
	renderer := &fakeRenderer{}

	chain := cor.NewBaseChain("scene")
	chain.AddCommand(NewNormalizeDuration("normalize-duration", testPalette))
	chain.AddCommand(NewFitCanvas("fit-canvas"))
	chain.AddCommand(NewOverlayCaption("overlay-caption", media.NewOverlayCompositor(media.NewFontMeasurer(), "Sans")))
	chain.AddCommand(NewAttachAudio("attach-audio"))
	chain.AddCommand(NewRenderScene("render-scene", renderer))
	ctx := newChainContext(work)
	chain.Execute(ctx)

	require.NoError(t, ctx.Err())
	require.NotNil(t, work.Clip)
	assert.Equal(t, 4, work.Clip.Visual.Loops)
	assert.Equal(t, 1080, work.Clip.Visual.Width)
	assert.Equal(t, 1920, work.Clip.Visual.Height)
	assert.Equal(t, 7.0, work.Clip.Duration())
	assert.True(t, work.Clip.InSync())
	assert.Equal(t, model.CaptionNone, work.Clip.CaptionOutcome)
	assert.Equal(t, media.ScenePath(work.WorkDir, "run", 3), work.Clip.RenderedPath)
	assert.Equal(t, []string{work.Clip.RenderedPath}, renderer.scenes)
}

func TestAttachAudioRejectsDrift(t *testing.T) {
	work := newWork(t, &model.Scene{Index: 1})
	work.Audio = model.AudioTrack{Duration: 7}
	work.Stream = &model.VisualStream{Duration: 6, FrameRate: 30, Width: 1080, Height: 1920}
	ctx := newChainContext(work)

	NewAttachAudio("attach-audio").Execute(ctx)

	assert.Error(t, ctx.Err())
	assert.Nil(t, work.Clip)
}

func TestRenderSceneFailure(t *testing.T) {
	work := newWork(t, &model.Scene{Index: 1})
	work.Clip = &model.SceneClip{Index: 1}
	ctx := newChainContext(work)

	NewRenderScene("render-scene", &fakeRenderer{err: errors.New("boom")}).Execute(ctx)

	assert.ErrorContains(t, ctx.Err(), "boom")
	assert.Empty(t, work.Clip.RenderedPath)
}

func TestSceneStepNotExecutableWithoutWork(t *testing.T) {
	ctx := newChainContext("not a scene")
	assert.False(t, NewFitCanvas("fit-canvas").IsExecutable(ctx))
	assert.False(t, NewResolveAudio("resolve-audio", nil, nil).IsExecutable(ctx))

	work := newWork(t, &model.Scene{Index: 1})
	ctx = newChainContext(work)
	assert.True(t, NewResolveAudio("resolve-audio", nil, nil).IsExecutable(ctx))
	assert.False(t, NewFitCanvas("fit-canvas").IsExecutable(ctx), "no stream yet")
	assert.False(t, NewRenderScene("render-scene", nil).IsExecutable(ctx), "no clip yet")
}

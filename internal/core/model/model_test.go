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

// Package model_test contains unit tests for the data models defined in the
// model package.
package model_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunID(t *testing.T) {
	name := "gs://scripts/skibidi.json"
	assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String(), model.NewRunID(name))
	assert.Equal(t, model.NewRunID(name), model.NewRunID(name))

	_, err := uuid.Parse(model.NewRunID(""))
	assert.NoError(t, err)
	assert.NotEqual(t, model.NewRunID(""), model.NewRunID(""))
}

func TestParseScript(t *testing.T) {
	data := []byte(`{
		"title": "Test",
		"scenes": [
			{"character": "Cappuccina", "dialogue": "hi", "audio": "a.mp3", "audio_duration": 2.5, "visual": "v.mp4"},
			{"character": "Tung Tung Sahur", "dialogue": "bye", "audio": "b.mp3", "caption": ""}
		]
	}`)
	script, err := model.ParseScript(data)
	require.NoError(t, err)
	assert.Equal(t, "Test", script.Title)
	require.Len(t, script.Scenes, 2)
	assert.Equal(t, 2.5, script.Scenes[0].AudioDuration)
	require.NotNil(t, script.Scenes[1].Caption)

	_, err = model.ParseScript([]byte(`{"title": "empty", "scenes": []}`))
	assert.ErrorIs(t, err, model.ErrInvalidScript)
	_, err = model.ParseScript([]byte(`not json`))
	assert.ErrorIs(t, err, model.ErrInvalidScript)
}

func TestBuildScenes(t *testing.T) {
	script := model.GetExampleScript()
	override := "custom caption"
	script.Scenes = append(script.Scenes, model.ScriptScene{Character: "Mr Pen Pineapple", Dialogue: "x", Audio: "c.mp3", Caption: &override})
	opts := model.ScriptOptions{
		CaptionsEnabled: true,
		IncludeSpeaker:  true,
		MaxChars:        10,
		Position:        model.CaptionPosition{Anchor: model.AnchorCenter, Y: 1600},
		Style:           model.CaptionStyle{FontSize: 50, MaxWidth: 1000},
	}

	scenes := script.BuildScenes(opts)
	require.Len(t, scenes, 3)
	for i, s := range scenes {
		assert.Equal(t, i+1, s.Index)
	}

	assert.Equal(t, "Skibidi Toilet", scenes[0].Speaker)
	require.NotNil(t, scenes[0].Visual)
	assert.Equal(t, "footage/Skibidi_Toilet.mp4", scenes[0].Visual.URI)
	assert.Equal(t, 3.6, scenes[0].Audio.Duration)
	require.NotNil(t, scenes[0].Caption)
	assert.Equal(t, "Skibidi Toilet:\nYou though", scenes[0].Caption.Text)
	assert.Equal(t, 1600, scenes[0].Caption.Position.Y)

	assert.Nil(t, scenes[1].Visual)
	require.NotNil(t, scenes[2].Caption)
	assert.Equal(t, "custom caption", scenes[2].Caption.Text)

	opts.CaptionsEnabled = false
	for _, s := range script.BuildScenes(opts) {
		assert.Nil(t, s.Caption)
	}
}

func TestVisualSource(t *testing.T) {
	assert.True(t, model.VisualSource{Kind: model.VisualImage}.IsStatic())
	assert.True(t, model.VisualSource{Kind: model.VisualColor}.IsStatic())
	assert.False(t, model.VisualSource{Kind: model.VisualVideo}.IsStatic())

	assert.True(t, model.GetExampleScene().Visual.Described())
	assert.False(t, model.VisualSource{URI: "x.mp4"}.Described())
	assert.True(t, model.NewColorSource(model.RGB{R: 1}, 1080, 1920).Described())

	assert.Equal(t, "0x8B4513", model.RGB{R: 139, G: 69, B: 19}.Hex())
	assert.Equal(t, "color", model.VisualColor.String())
}

func TestValidDuration(t *testing.T) {
	assert.True(t, model.ValidDuration(0.01))
	for _, d := range []float64{0, -1} {
		assert.False(t, model.ValidDuration(d))
	}
}

func TestVisualStreamWithFilterCopies(t *testing.T) {
	base := &model.VisualStream{Width: 1920, Height: 1080, FrameRate: 30}
	scaled := base.WithFilter(model.ScaleFilter{Width: 3413, Height: 1920}, 3413, 1920)
	cropped := scaled.WithFilter(model.CropFilter{Width: 1080, Height: 1920, X: 1166}, 1080, 1920)

	assert.Empty(t, base.Filters)
	assert.Len(t, scaled.Filters, 1)
	assert.Len(t, cropped.Filters, 2)
	assert.Equal(t, 1080, cropped.Width)
	assert.Equal(t, []string{"1080", "1920", "1166", "0"}, cropped.Filters[1].Args())
	assert.Len(t, cropped.FiltersNamed("crop"), 1)
	assert.InDelta(t, 1.0/30, cropped.FrameInterval(), 1e-12)
}

func TestDrawTextFilterKwArgs(t *testing.T) {
	f := model.DrawTextFilter{Text: "a: b", FontFamily: "Sans", FontSize: 50, Color: "white", X: "(w-text_w)/2", Y: 1600}
	kw := f.KwArgs()
	assert.Equal(t, "none", kw["expansion"])
	assert.Equal(t, "Sans", kw["font"])
	assert.NotContains(t, kw, "fontfile")
	assert.NotContains(t, kw, "borderw")

	f.FontFile = "/fonts/bold.ttf"
	f.BorderWidth = 2
	f.BorderColor = "black"
	kw = f.KwArgs()
	assert.Equal(t, "/fonts/bold.ttf", kw["fontfile"])
	assert.NotContains(t, kw, "font")
	assert.Equal(t, "2", kw["borderw"])
}

func TestTimelineOffsets(t *testing.T) {
	tl := &model.Timeline{Clips: []*model.SceneClip{
		{Audio: model.AudioTrack{Duration: 2}},
		{Audio: model.AudioTrack{Duration: 3.5}},
		{Audio: model.AudioTrack{Duration: 1}},
	}}
	assert.Equal(t, []float64{0, 2, 5.5}, tl.Offsets())
}

func TestNewRunReport(t *testing.T) {
	canvas := model.Canvas{Width: 1080, Height: 1920, FrameRate: 30}
	ok := &model.SceneClip{Index: 1, Speaker: "A", Audio: model.AudioTrack{Duration: 2}, VisualOutcome: model.VisualFromSource, CaptionOutcome: model.CaptionFull}
	fb := &model.SceneClip{Index: 2, Speaker: "B", Audio: model.AudioTrack{Duration: 3}, VisualOutcome: model.VisualFromFallback, FallbackReason: "missing", CaptionOutcome: model.CaptionReduced}
	cause := fmt.Errorf("%w: scene 3: %w", model.ErrSceneAssembly, model.ErrAudioUnavailable)
	results := []model.SceneResult{
		{Index: 1, Speaker: "A", Clip: ok},
		{Index: 2, Speaker: "B", Clip: fb},
		{Index: 3, Speaker: "C", Err: cause},
	}
	tl := &model.Timeline{Clips: []*model.SceneClip{ok, fb}, Duration: 5}

	report := model.NewRunReport("id", "title", canvas, results, tl)
	assert.Equal(t, "1080x1920", report.Canvas)
	assert.Equal(t, model.RunPartial, report.Status)
	assert.Equal(t, 5.0, report.TotalDuration)
	assert.WithinDuration(t, time.Now(), report.CreateDate, time.Second)
	require.Len(t, report.Scenes, 3)
	assert.Equal(t, model.SceneIncluded, report.Scenes[0].Status)
	assert.Equal(t, model.SceneFallback, report.Scenes[1].Status)
	assert.Equal(t, "missing", report.Scenes[1].Reason)
	assert.Equal(t, "reduced", report.Scenes[1].Caption)
	dropped := report.Dropped()
	require.Len(t, dropped, 1)
	assert.Equal(t, 3, dropped[0].Index)
	assert.True(t, errors.Is(cause, model.ErrAudioUnavailable))

	failed := model.NewRunReport("id", "title", canvas, results[2:], nil)
	assert.Equal(t, model.RunFailed, failed.Status)
	assert.Zero(t, failed.TotalDuration)
}

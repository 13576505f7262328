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

package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// EncodeSettings are the encoder parameters shared by every rendered scene.
// Scenes are encoded identically so the export step can join them without
// re-encoding.
type EncodeSettings struct {
	FFmpegPath   string `toml:"ffmpeg_path"`
	VideoCodec   string `toml:"video_codec"`
	AudioCodec   string `toml:"audio_codec"`
	Preset       string `toml:"preset"`
	AudioBitrate string `toml:"audio_bitrate"`
	PixelFormat  string `toml:"pixel_format"`
}

// Renderer materialises edit plans into media files.
type Renderer interface {
	// RenderScene encodes one clip to out.
	RenderScene(ctx context.Context, clip *model.SceneClip, out string) error
	// Export writes the timeline to out. Nothing is left at out unless the
	// whole timeline was written.
	Export(ctx context.Context, timeline *model.Timeline, out string) error
}

// FFmpegRenderer is a Renderer that builds ffmpeg command lines with
// ffmpeg-go and runs them under the caller's context.
type FFmpegRenderer struct {
	settings EncodeSettings
	workDir  string
}

// NewFFmpegRenderer creates a renderer writing intermediates under workDir,
// or under the OS temp dir when workDir is empty.
func NewFFmpegRenderer(settings EncodeSettings, workDir string) *FFmpegRenderer {
	if settings.FFmpegPath == "" {
		settings.FFmpegPath = "ffmpeg"
	}
	if settings.PixelFormat == "" {
		settings.PixelFormat = "yuv420p"
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &FFmpegRenderer{settings: settings, workDir: workDir}
}

// ScenePath is where the clip of scene index of run runID is rendered.
// An empty workDir means the OS temp dir.
func ScenePath(workDir string, runID string, index int) string {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return filepath.Join(workDir, fmt.Sprintf("%s_scene_%03d.mp4", runID, index))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// visualInput opens the plan's source as an ffmpeg input.
func visualInput(stream *model.VisualStream) (*ffmpeg.Stream, error) {
	src := stream.Source
	fps := formatFloat(stream.FrameRate)
	switch src.Kind {
	case model.VisualColor:
		spec := fmt.Sprintf("color=c=%s:s=%dx%d:r=%s", src.Color.Hex(), src.Width, src.Height, fps)
		return ffmpeg.Input(spec, ffmpeg.KwArgs{"f": "lavfi"}).Video(), nil
	case model.VisualImage:
		return ffmpeg.Input(src.Path, ffmpeg.KwArgs{"loop": "1", "framerate": fps}).Video(), nil
	case model.VisualVideo:
		kw := ffmpeg.KwArgs{}
		if stream.Loops > 1 {
			kw["stream_loop"] = strconv.Itoa(stream.Loops - 1)
		}
		return ffmpeg.Input(src.Path, kw).Video(), nil
	default:
		return nil, fmt.Errorf("unsupported visual kind %s", src.Kind)
	}
}

// sceneArgs builds the ffmpeg arguments for one clip. Caption lines are
// passed through text files written under dir.
func (r *FFmpegRenderer) sceneArgs(clip *model.SceneClip, out string, dir string) ([]string, error) {
	stream := clip.Visual
	v, err := visualInput(stream)
	if err != nil {
		return nil, err
	}
	fps := formatFloat(stream.FrameRate)
	v = v.Filter("fps", ffmpeg.Args{fps}).
		Filter("trim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": formatFloat(stream.Duration)}).
		Filter("setpts", ffmpeg.Args{"PTS-STARTPTS"})

	for i, f := range stream.Filters {
		kw := f.KwArgs()
		if dt, ok := f.(model.DrawTextFilter); ok {
			textFile := filepath.Join(dir, fmt.Sprintf("caption_%02d.txt", i))
			if err := os.WriteFile(textFile, []byte(dt.Text), 0o644); err != nil {
				return nil, fmt.Errorf("failed to write caption text: %w", err)
			}
			delete(kw, "text")
			kw["textfile"] = textFile
		}
		if len(kw) > 0 {
			v = v.Filter(f.Name(), ffmpeg.Args(f.Args()), ffmpeg.KwArgs(kw))
		} else {
			v = v.Filter(f.Name(), ffmpeg.Args(f.Args()))
		}
	}
	v = v.Filter("setsar", ffmpeg.Args{"1"}).Filter("format", ffmpeg.Args{r.settings.PixelFormat})

	a := ffmpeg.Input(clip.Audio.Path).Audio()
	return ffmpeg.Output([]*ffmpeg.Stream{v, a}, out, ffmpeg.KwArgs{
		"c:v":      r.settings.VideoCodec,
		"c:a":      r.settings.AudioCodec,
		"b:a":      r.settings.AudioBitrate,
		"preset":   r.settings.Preset,
		"r":        fps,
		"movflags": "+faststart",
	}).OverWriteOutput().GetArgs(), nil
}

// RenderScene implements Renderer.
func (r *FFmpegRenderer) RenderScene(ctx context.Context, clip *model.SceneClip, out string) error {
	if clip.Visual == nil {
		return fmt.Errorf("scene %d has no visual track", clip.Index)
	}
	if clip.Audio.Path == "" {
		return fmt.Errorf("%w: scene %d audio was not acquired", model.ErrAudioUnavailable, clip.Index)
	}
	dir, err := os.MkdirTemp(r.workDir, fmt.Sprintf("scene_%03d_", clip.Index))
	if err != nil {
		return fmt.Errorf("failed to create scene work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	return writeAtomic(out, func(partial string) error {
		args, err := r.sceneArgs(clip, partial, dir)
		if err != nil {
			return err
		}
		return r.run(ctx, args)
	})
}

// Export implements Renderer. Clips that were not rendered yet are rendered
// into the work directory first; the scene files are then joined with the
// concat demuxer without re-encoding.
func (r *FFmpegRenderer) Export(ctx context.Context, timeline *model.Timeline, out string) error {
	if timeline == nil || len(timeline.Clips) == 0 {
		return model.ErrNoScenesProduced
	}
	for _, clip := range timeline.Clips {
		if clip.RenderedPath != "" {
			continue
		}
		path := ScenePath(r.workDir, timeline.ID, clip.Index)
		if err := r.RenderScene(ctx, clip, path); err != nil {
			return fmt.Errorf("failed to render scene %d: %w", clip.Index, err)
		}
		clip.RenderedPath = path
	}

	list, err := os.CreateTemp(r.workDir, "concat-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(list.Name())
	if _, err := list.WriteString(concatList(timeline.Clips)); err != nil {
		list.Close()
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	if err := list.Close(); err != nil {
		return err
	}

	return writeAtomic(out, func(partial string) error {
		args := ffmpeg.Input(list.Name(), ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
			Output(partial, ffmpeg.KwArgs{"c": "copy", "movflags": "+faststart"}).
			OverWriteOutput().
			GetArgs()
		return r.run(ctx, args)
	})
}

// concatList renders the concat demuxer script for clips, in order.
func concatList(clips []*model.SceneClip) string {
	var b strings.Builder
	for _, c := range clips {
		path, err := filepath.Abs(c.RenderedPath)
		if err != nil {
			path = c.RenderedPath
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(path, "'", `'\''`))
	}
	return b.String()
}

func (r *FFmpegRenderer) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.settings.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	slog.DebugContext(ctx, "running ffmpeg", slog.String("args", strings.Join(args, " ")))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error running ffmpeg: %w: %s", err, lastLines(stderr.String(), 5))
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// PartialPath returns the name a file is written under until it is complete.
func PartialPath(out string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + ".partial" + ext
}

// writeAtomic runs write against a partial file and renames it to out only
// on success. The partial file is removed on every failure path, including
// cancellation.
func writeAtomic(out string, write func(partial string) error) error {
	partial := PartialPath(out)
	if err := write(partial); err != nil {
		os.Remove(partial)
		return err
	}
	if err := os.Rename(partial, out); err != nil {
		os.Remove(partial)
		return fmt.Errorf("failed to publish %s: %w", out, err)
	}
	return nil
}

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
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Prober reads the properties of local media files.
type Prober interface {
	// ProbeVisual describes a video or image file. Errors wrap
	// model.ErrSourceUnavailable.
	ProbeVisual(ctx context.Context, path string) (model.VisualSource, error)
	// ProbeDuration returns the playable length of an audio or video file.
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	Duration     string `json:"duration"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}

// FFProbe is a Prober that shells out to ffprobe through ffmpeg-go.
type FFProbe struct {
	timeout time.Duration
}

// NewFFProbe creates a prober. A zero timeout relies on the caller's context
// deadline only.
func NewFFProbe(timeout time.Duration) *FFProbe {
	return &FFProbe{timeout: timeout}
}

func (p *FFProbe) run(ctx context.Context, path string) (*probeOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		// ffmpeg-go treats a non-positive timeout as none at all.
		if left <= 0 {
			return nil, context.DeadlineExceeded
		}
		if timeout == 0 || left < timeout {
			timeout = left
		}
	}
	raw, err := ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{})
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe([]byte(raw))
}

func parseProbe(data []byte) (*probeOutput, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &out, nil
}

// ProbeVisual implements Prober.
func (p *FFProbe) ProbeVisual(ctx context.Context, path string) (model.VisualSource, error) {
	kind, err := DetectKind(path)
	if err != nil {
		return model.VisualSource{}, fmt.Errorf("%w: %w", model.ErrSourceUnavailable, err)
	}
	out, err := p.run(ctx, path)
	if err != nil {
		return model.VisualSource{}, fmt.Errorf("%w: %w", model.ErrSourceUnavailable, err)
	}
	return describe(path, kind, out)
}

// describe turns probe output into a source. Split out of ProbeVisual so it can
// be exercised without ffprobe.
func describe(path string, kind model.VisualKind, out *probeOutput) (model.VisualSource, error) {
	src := model.VisualSource{Kind: kind, URI: path, Path: path}
	var video *probeStream
	for i := range out.Streams {
		if out.Streams[i].CodecType == "video" {
			video = &out.Streams[i]
			break
		}
	}
	if video == nil {
		return src, fmt.Errorf("%w: %s has no video stream", model.ErrSourceUnavailable, path)
	}
	src.Width, src.Height = video.Width, video.Height
	if kind == model.VisualImage {
		return src, nil
	}
	src.FrameRate = parseRate(video.AvgFrameRate)
	if src.FrameRate <= 0 {
		src.FrameRate = parseRate(video.RFrameRate)
	}
	src.Duration = parseSeconds(video.Duration)
	if src.Duration <= 0 {
		src.Duration = parseSeconds(out.Format.Duration)
	}
	if !model.ValidDuration(src.Duration) {
		return src, fmt.Errorf("%w: %s has no usable duration", model.ErrSourceUnavailable, path)
	}
	return src, nil
}

// ProbeDuration implements Prober.
func (p *FFProbe) ProbeDuration(ctx context.Context, path string) (float64, error) {
	out, err := p.run(ctx, path)
	if err != nil {
		return 0, err
	}
	d := parseSeconds(out.Format.Duration)
	if d <= 0 {
		for _, s := range out.Streams {
			if v := parseSeconds(s.Duration); v > d {
				d = v
			}
		}
	}
	return d, nil
}

// DetectKind sniffs the file header to tell videos from images.
func DetectKind(path string) (model.VisualKind, error) {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return model.VisualVideo, fmt.Errorf("failed to read %s: %w", path, err)
	}
	switch kind.MIME.Type {
	case "video":
		return model.VisualVideo, nil
	case "image":
		return model.VisualImage, nil
	default:
		return model.VisualVideo, fmt.Errorf("%s is not a video or image (detected %q)", path, kind.MIME.Value)
	}
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseRate parses ffprobe's "num/den" frame rates.
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return parseSeconds(s)
	}
	n, d := parseSeconds(num), parseSeconds(den)
	if d == 0 {
		return 0
	}
	return n / d
}

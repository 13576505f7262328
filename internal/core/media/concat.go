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
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// Concatenate joins the clips of the given scene results, in order, into a
// timeline on the given canvas. Scenes that failed, or whose clip does not
// match the canvas, are skipped and listed in Timeline.Skipped with the
// reason. The timeline's duration is the sum of the included clips.
//
// Inputs:
//   - ctx: The context for logging.
//   - canvas: The output canvas every clip must already be fitted to.
//   - results: The scene results in script order.
//
// Outputs:
//   - *model.Timeline: The timeline, never nil when err is nil.
//   - error: model.ErrNoScenesProduced if no scene could be included.
func Concatenate(ctx context.Context, canvas model.Canvas, results []model.SceneResult) (*model.Timeline, error) {
	timeline := &model.Timeline{Canvas: canvas}
	for _, r := range results {
		reason := ""
		switch {
		case r.Err != nil:
			reason = r.Err.Error()
		case r.Clip == nil || r.Clip.Visual == nil:
			reason = "no clip produced"
		case !sameCanvas(canvas, r.Clip.Visual):
			reason = fmt.Sprintf("clip is %dx%d, timeline is %dx%d",
				r.Clip.Visual.Width, r.Clip.Visual.Height, canvas.Width, canvas.Height)
		}
		if reason != "" {
			skip := model.SkippedScene{Index: r.Index, Speaker: r.Speaker, Reason: reason}
			slog.WarnContext(ctx, "skipping scene", slog.Int("scene", r.Index), slog.String("speaker", r.Speaker), slog.String("reason", reason))
			timeline.Skipped = append(timeline.Skipped, skip)
			continue
		}
		timeline.Clips = append(timeline.Clips, r.Clip)
		timeline.Duration += r.Clip.Duration()
	}
	if len(timeline.Clips) == 0 {
		return nil, fmt.Errorf("%w: all %d scenes failed", model.ErrNoScenesProduced, len(results))
	}
	slog.InfoContext(ctx, "timeline assembled",
		slog.Int("included", len(timeline.Clips)), slog.Int("skipped", len(timeline.Skipped)), slog.Float64("duration", timeline.Duration))
	return timeline, nil
}

func sameCanvas(c model.Canvas, s *model.VisualStream) bool {
	return c.Width == s.Width && c.Height == s.Height
}

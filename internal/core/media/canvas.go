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
	"errors"
	"fmt"
	"math"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// ErrInvalidCanvas is returned when the requested canvas has no area.
var ErrInvalidCanvas = errors.New("invalid canvas")

// FitPlan describes how a frame of one size is brought to the canvas: a
// uniform scale to ScaleWidth x ScaleHeight followed by a crop of the
// canvas-sized window whose top-left corner is (CropX, CropY).
type FitPlan struct {
	ScaleWidth  int
	ScaleHeight int
	CropX       int
	CropY       int
}

// PlanFit computes the aspect-fill plan for a sourceW x sourceH frame on a
// targetW x targetH canvas. The resize is driven by height; when that leaves
// the frame narrower than the canvas it is driven by width instead. Whatever
// overflows is cropped equally from both sides.
func PlanFit(sourceW, sourceH, targetW, targetH int) FitPlan {
	w := int(math.Round(float64(sourceW) * float64(targetH) / float64(sourceH)))
	plan := FitPlan{ScaleWidth: w, ScaleHeight: targetH}
	if w < targetW {
		h := int(math.Round(float64(sourceH) * float64(targetW) / float64(sourceW)))
		if h < targetH {
			h = targetH
		}
		plan = FitPlan{ScaleWidth: targetW, ScaleHeight: h}
	}
	plan.CropX = (plan.ScaleWidth - targetW) / 2
	plan.CropY = (plan.ScaleHeight - targetH) / 2
	return plan
}

// FitCanvas returns a stream whose frames are exactly width x height. Content
// is scaled uniformly and center-cropped, never letterboxed or stretched. A
// stream that already conforms is returned as is, so fitting is idempotent.
func FitCanvas(stream *model.VisualStream, width int, height int) (*model.VisualStream, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidCanvas, width, height)
	}
	if stream.Width <= 0 || stream.Height <= 0 {
		return nil, fmt.Errorf("%w: stream of %q has no geometry", model.ErrSourceUnavailable, stream.Source.URI)
	}
	if stream.Width == width && stream.Height == height {
		return stream, nil
	}

	plan := PlanFit(stream.Width, stream.Height, width, height)
	out := stream
	if plan.ScaleWidth != stream.Width || plan.ScaleHeight != stream.Height {
		out = out.WithFilter(model.ScaleFilter{Width: plan.ScaleWidth, Height: plan.ScaleHeight}, plan.ScaleWidth, plan.ScaleHeight)
	}
	if plan.ScaleWidth != width || plan.ScaleHeight != height {
		out = out.WithFilter(model.CropFilter{Width: width, Height: height, X: plan.CropX, Y: plan.CropY}, width, height)
	}
	return out, nil
}

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
	"strings"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// Palette maps speaker labels to the solid colour used when a scene has no
// usable footage.
type Palette struct {
	Colors  map[string]model.RGB
	Default model.RGB
}

// ColorFor returns the colour for speaker. Labels are matched exactly first,
// then ignoring case and surrounding space. Unknown speakers get Default.
func (p Palette) ColorFor(speaker string) model.RGB {
	if c, ok := p.Colors[speaker]; ok {
		return c
	}
	want := strings.TrimSpace(speaker)
	for name, c := range p.Colors {
		if strings.EqualFold(strings.TrimSpace(name), want) {
			return c
		}
	}
	return p.Default
}

// FallbackSource is the deterministic substitute for a missing or unreadable
// visual: a solid colour frame keyed by speaker, generated at canvas size.
func (p Palette) FallbackSource(speaker string, canvas model.Canvas) model.VisualSource {
	src := model.NewColorSource(p.ColorFor(speaker), canvas.Width, canvas.Height)
	src.FrameRate = canvas.FrameRate
	return src
}

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
	"fmt"
	"os"
	"sync"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// TextMeasurer measures caption text the way the renderer will draw it.
type TextMeasurer interface {
	// Measure returns the advance width of text in pixels. It fails when the
	// style's font cannot be loaded or is missing a glyph used by text.
	Measure(text string, style model.CaptionStyle) (float64, error)
	// Covers reports whether the style's font has a glyph for r.
	Covers(r rune, style model.CaptionStyle) bool
}

type faceKey struct {
	file string
	size float64
}

type loadedFace struct {
	font *sfnt.Font
	face font.Face
}

// FontMeasurer is a TextMeasurer backed by OpenType font files. Styles with no
// font file are measured with the embedded Go Bold face, which is what the
// renderer's fontconfig fallback resolves to on the worker image.
type FontMeasurer struct {
	mu    sync.Mutex
	fonts map[string]*sfnt.Font
	faces map[faceKey]*loadedFace
}

// NewFontMeasurer returns an empty measurer; fonts are loaded on first use.
func NewFontMeasurer() *FontMeasurer {
	return &FontMeasurer{
		fonts: make(map[string]*sfnt.Font),
		faces: make(map[faceKey]*loadedFace),
	}
}

func (m *FontMeasurer) loadFont(file string) (*sfnt.Font, error) {
	if f, ok := m.fonts[file]; ok {
		return f, nil
	}
	var data []byte
	if file == "" {
		data = gobold.TTF
	} else {
		var err error
		if data, err = os.ReadFile(file); err != nil {
			return nil, fmt.Errorf("failed to read font %s: %w", file, err)
		}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %q: %w", file, err)
	}
	m.fonts[file] = f
	return f, nil
}

func (m *FontMeasurer) load(style model.CaptionStyle) (*loadedFace, error) {
	if style.FontSize <= 0 {
		return nil, fmt.Errorf("font size %v", style.FontSize)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := faceKey{file: style.FontFile, size: style.FontSize}
	if lf, ok := m.faces[key]; ok {
		return lf, nil
	}
	f, err := m.loadFont(style.FontFile)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: style.FontSize, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	lf := &loadedFace{font: f, face: face}
	m.faces[key] = lf
	return lf, nil
}

func covers(f *sfnt.Font, r rune) bool {
	if r == ' ' || r == '\t' {
		return true
	}
	var buf sfnt.Buffer
	idx, err := f.GlyphIndex(&buf, r)
	return err == nil && idx != 0
}

// Measure implements TextMeasurer.
func (m *FontMeasurer) Measure(text string, style model.CaptionStyle) (float64, error) {
	lf, err := m.load(style)
	if err != nil {
		return 0, err
	}
	for _, r := range text {
		if !covers(lf.font, r) {
			return 0, fmt.Errorf("no glyph for %U", r)
		}
	}
	m.mu.Lock()
	adv := font.MeasureString(lf.face, text)
	m.mu.Unlock()
	return fixedToFloat(adv), nil
}

// Covers implements TextMeasurer.
func (m *FontMeasurer) Covers(r rune, style model.CaptionStyle) bool {
	lf, err := m.load(style)
	if err != nil {
		return false
	}
	return covers(lf.font, r)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

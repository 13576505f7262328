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

// Package model defines the core data structures for the application.
// This file, `scene.go`, holds the per-scene inputs handed to the assembly
// engine by its collaborators: the visual source, the narration audio track
// and the optional caption. These values are produced once by the script,
// voice and footage providers and are only read by the engine.
package model

import (
	"fmt"
	"math"
)

// VisualKind identifies how a VisualSource produces frames.
type VisualKind int

const (
	// VisualVideo is a decodable video with a finite, known duration.
	VisualVideo VisualKind = iota
	// VisualImage is a still image held for as long as needed.
	VisualImage
	// VisualColor is a solid colour frame generated at the canvas size.
	VisualColor
)

// String returns the lower-case name of the kind, used in logs and reports.
func (k VisualKind) String() string {
	switch k {
	case VisualVideo:
		return "video"
	case VisualImage:
		return "image"
	case VisualColor:
		return "color"
	default:
		return fmt.Sprintf("visual-kind(%d)", int(k))
	}
}

// RGB is an 8-bit colour triple.
type RGB struct {
	R uint8 `toml:"r" json:"r"`
	G uint8 `toml:"g" json:"g"`
	B uint8 `toml:"b" json:"b"`
}

// Hex renders the colour as 0xRRGGBB, the form ffmpeg's colour parser accepts.
func (c RGB) Hex() string {
	return fmt.Sprintf("0x%02X%02X%02X", c.R, c.G, c.B)
}

// VisualSource describes the visual asset for one scene. Video sources carry
// their probed duration, geometry and native frame rate. Image sources carry
// geometry only. Colour sources carry the colour and the geometry they will be
// generated at.
type VisualSource struct {
	Kind      VisualKind
	URI       string  // Local path or gs:// URI as handed over by the visual provider.
	Path      string  // Local, readable path once the source has been acquired.
	Color     RGB     // Only meaningful for VisualColor.
	Duration  float64 // Seconds. Zero for infinite sources.
	Width     int
	Height    int
	FrameRate float64
}

// IsStatic reports whether the source has an implicit, infinite duration.
func (v VisualSource) IsStatic() bool {
	return v.Kind == VisualImage || v.Kind == VisualColor
}

// Described reports whether the source carries everything the normalizers
// need, so it can be used without probing.
func (v VisualSource) Described() bool {
	switch v.Kind {
	case VisualColor:
		return v.Width > 0 && v.Height > 0
	case VisualImage:
		return v.Path != "" && v.Width > 0 && v.Height > 0
	default:
		return v.Path != "" && v.Width > 0 && v.Height > 0 && v.Duration > 0
	}
}

// NewColorSource builds a solid-colour source of the given geometry.
func NewColorSource(color RGB, width int, height int) VisualSource {
	return VisualSource{Kind: VisualColor, Color: color, Width: width, Height: height}
}

// AudioTrack is the narration for a scene. Its duration is the authoritative
// length every visual transformation must match.
type AudioTrack struct {
	URI      string  `json:"uri"`
	Path     string  `json:"-"`
	Duration float64 `json:"duration"`
}

// ValidDuration reports whether d can be used as a target duration.
func ValidDuration(d float64) bool {
	return d > 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}

// Anchor is the horizontal alignment of a caption block.
type Anchor string

const (
	AnchorLeft   Anchor = "left"
	AnchorCenter Anchor = "center"
	AnchorRight  Anchor = "right"
)

// CaptionPosition anchors a caption block horizontally and places its top
// edge at Y pixels from the top of the canvas.
type CaptionPosition struct {
	Anchor Anchor `toml:"anchor" json:"anchor"`
	Y      int    `toml:"y" json:"y"`
}

// CaptionStyle holds the rendering parameters for a caption.
type CaptionStyle struct {
	FontFile    string  `toml:"font_file" json:"font_file"`       // TrueType/OpenType file used for metrics and rendering.
	FontSize    float64 `toml:"font_size" json:"font_size"`       // Pixel size.
	Color       string  `toml:"color" json:"color"`               // Any ffmpeg colour expression, e.g. "white".
	StrokeColor string  `toml:"stroke_color" json:"stroke_color"` // Outline colour.
	StrokeWidth int     `toml:"stroke_width" json:"stroke_width"` // Outline width in pixels, zero disables it.
	MaxWidth    int     `toml:"max_width" json:"max_width"`       // Word-wrap width in pixels.
	LineSpacing float64 `toml:"line_spacing" json:"line_spacing"` // Multiplier applied to the font size.
}

// CaptionSpec is the optional caption burned into a scene. Its duration is
// always the scene duration.
type CaptionSpec struct {
	Text     string
	Position CaptionPosition
	Style    CaptionStyle
}

// Scene is one narrated unit of work. It is consumed exactly once.
type Scene struct {
	Index   int           // 1-based position in the script.
	Speaker string        // Character label, also the key into the fallback colour table.
	Visual  *VisualSource // Nil when the visual provider found nothing.
	Audio   AudioTrack
	Caption *CaptionSpec
	Voice   string // Voice hint forwarded from the script; informational only.
	Action  string
}

// Label is the human readable identifier used in logs and reports.
func (s *Scene) Label() string {
	if s.Speaker == "" {
		return fmt.Sprintf("scene %d", s.Index)
	}
	return fmt.Sprintf("scene %d (%s)", s.Index, s.Speaker)
}

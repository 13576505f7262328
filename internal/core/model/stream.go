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
// This file, `stream.go`, defines VisualStream, the declarative edit plan the
// normalizers build up. A stream never holds decoded frames: it records the
// source, how many whole copies of it are played back to back, the trimmed
// duration, the current frame geometry and the ordered filters to apply.
// Renderers translate the plan into an ffmpeg filter graph.
package model

import "strconv"

// ints formats positional filter arguments. Each value is passed separately
// so the graph builder escapes nothing inside it.
func ints(v ...int) []string {
	out := make([]string, len(v))
	for i, n := range v {
		out[i] = strconv.Itoa(n)
	}
	return out
}

// Filter is one step of a stream's filter chain, expressed the way ffmpeg
// filters are addressed: a name, positional arguments and keyword arguments.
type Filter interface {
	Name() string
	Args() []string
	KwArgs() map[string]interface{}
}

// ScaleFilter resizes the frame to exactly Width x Height.
type ScaleFilter struct {
	Width  int
	Height int
}

func (f ScaleFilter) Name() string   { return "scale" }
func (f ScaleFilter) Args() []string { return ints(f.Width, f.Height) }
func (f ScaleFilter) KwArgs() map[string]interface{} {
	return nil
}

// CropFilter keeps the Width x Height window whose top-left corner is (X, Y).
type CropFilter struct {
	Width  int
	Height int
	X      int
	Y      int
}

func (f CropFilter) Name() string { return "crop" }
func (f CropFilter) Args() []string {
	return ints(f.Width, f.Height, f.X, f.Y)
}
func (f CropFilter) KwArgs() map[string]interface{} {
	return nil
}

// DrawTextFilter burns a single line of caption text into every frame.
type DrawTextFilter struct {
	Text        string
	FontFile    string // Used when set.
	FontFamily  string // fontconfig family used when FontFile is empty.
	FontSize    int
	Color       string
	BorderWidth int
	BorderColor string
	X           string // ffmpeg expression, e.g. "(w-text_w)/2".
	Y           int
}

func (f DrawTextFilter) Name() string   { return "drawtext" }
func (f DrawTextFilter) Args() []string { return nil }
func (f DrawTextFilter) KwArgs() map[string]interface{} {
	out := map[string]interface{}{
		"text":      f.Text,
		"fontsize":  strconv.Itoa(f.FontSize),
		"fontcolor": f.Color,
		"x":         f.X,
		"y":         strconv.Itoa(f.Y),
		"expansion": "none",
	}
	if f.FontFile != "" {
		out["fontfile"] = f.FontFile
	} else if f.FontFamily != "" {
		out["font"] = f.FontFamily
	}
	if f.BorderWidth > 0 {
		out["borderw"] = strconv.Itoa(f.BorderWidth)
		out["bordercolor"] = f.BorderColor
	}
	return out
}

// VisualStream is the edit plan for a scene's visual track.
type VisualStream struct {
	Source    VisualSource
	Loops     int     // Whole-source repetitions played back to back before trimming.
	Duration  float64 // Seconds, after trimming.
	FrameRate float64
	Width     int // Frame geometry after all filters.
	Height    int
	Filters   []Filter
}

// FrameInterval is the duration of one frame in seconds.
func (s *VisualStream) FrameInterval() float64 {
	if s.FrameRate <= 0 {
		return 0
	}
	return 1 / s.FrameRate
}

// Clone returns a copy whose filter slice can be appended to without
// affecting the receiver.
func (s *VisualStream) Clone() *VisualStream {
	out := *s
	out.Filters = append([]Filter(nil), s.Filters...)
	return &out
}

// WithFilter returns a copy of the stream with f appended and the geometry
// set to width x height.
func (s *VisualStream) WithFilter(f Filter, width int, height int) *VisualStream {
	out := s.Clone()
	out.Filters = append(out.Filters, f)
	out.Width = width
	out.Height = height
	return out
}

// FiltersNamed returns the filters whose ffmpeg name is name, in order.
func (s *VisualStream) FiltersNamed(name string) []Filter {
	var out []Filter
	for _, f := range s.Filters {
		if f.Name() == name {
			out = append(out, f)
		}
	}
	return out
}

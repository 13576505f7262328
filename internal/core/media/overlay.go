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
	"math"
	"strings"
	"unicode"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

const defaultLineSpacing = 1.2

// OverlayCompositor burns captions into streams.
//
// Rendering degrades rather than fails. The requested style is tried first;
// if the text cannot be laid out with it (missing font, missing glyphs) the
// caption is retried in a reduced style: the fallback font family, no stroke
// and with any glyph the fallback font lacks removed. Only if that also fails
// is the caption dropped. Every downgrade is logged and reported through the
// returned model.CaptionOutcome.
type OverlayCompositor struct {
	measurer       TextMeasurer
	fallbackFamily string
}

// NewOverlayCompositor creates a compositor.
//
// Inputs:
//   - measurer: Used to word-wrap text and check glyph coverage.
//   - fallbackFamily: The fontconfig family used for the reduced style.
func NewOverlayCompositor(measurer TextMeasurer, fallbackFamily string) *OverlayCompositor {
	return &OverlayCompositor{measurer: measurer, fallbackFamily: fallbackFamily}
}

// Overlay composites caption onto stream for the stream's full duration. A
// nil or blank caption returns stream untouched. The result always has the
// stream's duration and geometry.
func (o *OverlayCompositor) Overlay(ctx context.Context, stream *model.VisualStream, caption *model.CaptionSpec) (*model.VisualStream, model.CaptionOutcome) {
	if caption == nil || strings.TrimSpace(caption.Text) == "" {
		return stream, model.CaptionNone
	}

	out, err := o.compose(stream, caption.Text, caption.Position, caption.Style, "")
	if err == nil {
		return out, model.CaptionFull
	}
	slog.WarnContext(ctx, "caption could not be rendered in requested style, using reduced style",
		slog.String("font", caption.Style.FontFile), slog.Any("error", err))

	reduced := o.reducedStyle(caption.Style)
	text := o.coverable(caption.Text, reduced)
	if strings.TrimSpace(text) == "" {
		slog.ErrorContext(ctx, "caption dropped, no renderable glyphs in reduced style", slog.String("text", caption.Text))
		return stream, model.CaptionDropped
	}
	out, err = o.compose(stream, text, caption.Position, reduced, o.fallbackFamily)
	if err != nil {
		slog.ErrorContext(ctx, "caption dropped, reduced style failed", slog.Any("error", err))
		return stream, model.CaptionDropped
	}
	return out, model.CaptionReduced
}

func (o *OverlayCompositor) reducedStyle(style model.CaptionStyle) model.CaptionStyle {
	style.FontFile = ""
	style.StrokeWidth = 0
	return style
}

// coverable removes the runes the style's font cannot draw.
func (o *OverlayCompositor) coverable(text string, style model.CaptionStyle) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || o.measurer.Covers(r, style) {
			return r
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return -1
	}, text)
}

func (o *OverlayCompositor) compose(stream *model.VisualStream, text string, pos model.CaptionPosition, style model.CaptionStyle, family string) (*model.VisualStream, error) {
	if style.MaxWidth <= 0 {
		return nil, fmt.Errorf("%w: max width %d", model.ErrOverlayRender, style.MaxWidth)
	}
	lines, err := Wrap(text, style, o.measurer)
	if err != nil {
		return nil, err
	}
	spacing := style.LineSpacing
	if spacing <= 0 {
		spacing = defaultLineSpacing
	}
	lineHeight := int(math.Round(style.FontSize * spacing))
	x := anchorExpr(pos.Anchor, stream.Width, style.MaxWidth)

	out := stream
	for i, line := range lines {
		f := model.DrawTextFilter{
			Text:        line,
			FontFile:    style.FontFile,
			FontFamily:  family,
			FontSize:    int(math.Round(style.FontSize)),
			Color:       style.Color,
			BorderWidth: style.StrokeWidth,
			BorderColor: style.StrokeColor,
			X:           x,
			Y:           pos.Y + i*lineHeight,
		}
		out = out.WithFilter(f, stream.Width, stream.Height)
	}
	return out, nil
}

// anchorExpr returns the drawtext x expression for a block of at most
// maxWidth pixels anchored on a frame of frameWidth pixels.
func anchorExpr(anchor model.Anchor, frameWidth int, maxWidth int) string {
	margin := (frameWidth - maxWidth) / 2
	if margin < 0 {
		margin = 0
	}
	switch anchor {
	case model.AnchorLeft:
		return fmt.Sprintf("%d", margin)
	case model.AnchorRight:
		return fmt.Sprintf("w-text_w-%d", margin)
	default:
		return "(w-text_w)/2"
	}
}

// Wrap breaks text into lines no wider than style.MaxWidth. Explicit newlines
// are kept. Words are never split, so a single word wider than the limit
// occupies a line of its own. Errors from the measurer are wrapped with
// model.ErrOverlayRender.
func Wrap(text string, style model.CaptionStyle, m TextMeasurer) ([]string, error) {
	limit := float64(style.MaxWidth)
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}
		current := words[0]
		if _, err := m.Measure(current, style); err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrOverlayRender, err)
		}
		for _, word := range words[1:] {
			candidate := current + " " + word
			w, err := m.Measure(candidate, style)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", model.ErrOverlayRender, err)
			}
			if w <= limit {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = word
		}
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: caption has no words", model.ErrOverlayRender)
	}
	return lines, nil
}

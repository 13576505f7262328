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
// This file, `script.go`, defines the script document handed over by the
// script/ordering provider. The JSON shape is the one produced by the script
// generator (title, characters, ordered scenes) extended with the audio and
// visual URIs the voice and footage providers attach to each scene.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ScriptScene is one entry of a script's ordered scene list.
type ScriptScene struct {
	Character     string  `json:"character"`
	Action        string  `json:"action,omitempty"`
	Dialogue      string  `json:"dialogue"`
	Duration      float64 `json:"duration,omitempty"` // Planned length from the generator, informational only.
	Voice         string  `json:"voice,omitempty"`
	Audio         string  `json:"audio"`                    // Narration file produced by the voice provider.
	AudioDuration float64 `json:"audio_duration,omitempty"` // Checked against the file.
	Visual        string  `json:"visual,omitempty"`         // Footage chosen by the visual provider; empty means not found.
	Caption       *string `json:"caption,omitempty"`        // Overrides the generated caption; an empty string disables it.
}

// Script is the ordered list of scenes for one short.
type Script struct {
	Title         string        `json:"title"`
	Characters    []string      `json:"characters,omitempty"`
	Scenes        []ScriptScene `json:"scenes"`
	TotalDuration float64       `json:"total_duration,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
}

// ScriptOptions controls how script entries become scenes.
type ScriptOptions struct {
	CaptionsEnabled bool
	IncludeSpeaker  bool
	MaxChars        int
	Position        CaptionPosition
	Style           CaptionStyle
}

// ParseScript decodes and validates a script document.
func ParseScript(data []byte) (*Script, error) {
	var out Script
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to parse script: %w", ErrInvalidScript, err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks the structural requirements of a script. Per-scene media
// problems are not validated here; they are handled during assembly so a
// single bad scene cannot reject the whole script.
func (s *Script) Validate() error {
	if len(s.Scenes) == 0 {
		return fmt.Errorf("%w: script has no scenes", ErrInvalidScript)
	}
	return nil
}

// BuildScenes converts the script entries into scenes in script order.
// Indexes are 1-based.
func (s *Script) BuildScenes(opts ScriptOptions) []*Scene {
	out := make([]*Scene, 0, len(s.Scenes))
	for i, entry := range s.Scenes {
		scene := &Scene{
			Index:   i + 1,
			Speaker: strings.TrimSpace(entry.Character),
			Audio:   AudioTrack{URI: entry.Audio, Duration: entry.AudioDuration},
			Voice:   entry.Voice,
			Action:  entry.Action,
		}
		if uri := strings.TrimSpace(entry.Visual); uri != "" {
			scene.Visual = &VisualSource{URI: uri}
		}
		if opts.CaptionsEnabled {
			if text := captionText(entry, opts); text != "" {
				scene.Caption = &CaptionSpec{Text: text, Position: opts.Position, Style: opts.Style}
			}
		}
		out = append(out, scene)
	}
	return out
}

// captionText builds "<speaker>:\n<dialogue>" with the dialogue cut to
// MaxChars runes, unless the entry overrides the caption.
func captionText(entry ScriptScene, opts ScriptOptions) string {
	if entry.Caption != nil {
		return strings.TrimSpace(*entry.Caption)
	}
	dialogue := strings.TrimSpace(entry.Dialogue)
	if opts.MaxChars > 0 {
		if r := []rune(dialogue); len(r) > opts.MaxChars {
			dialogue = string(r[:opts.MaxChars])
		}
	}
	speaker := strings.TrimSpace(entry.Character)
	if !opts.IncludeSpeaker || speaker == "" {
		return dialogue
	}
	if dialogue == "" {
		return speaker + ":"
	}
	return speaker + ":\n" + dialogue
}

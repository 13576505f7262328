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

// Package model defines the data structures for the application. This file,
// `examples.go`, provides factory functions for creating hardcoded, example
// instances of the data models. They are used by the tests and by the
// `assemble` command's `--example` flag to print a template script.
package model

// GetExampleScript returns a script in the shape the script generator
// produces, with the audio and visual URIs the other providers attach.
// The second scene has no footage so it exercises the fallback colour path.
//
// Outputs:
//   - *Script: A pointer to a hardcoded Script object.
func GetExampleScript() *Script {
	return &Script{
		Title:      "Skibidi Toilet BETRAYS Cappuccina",
		Characters: []string{"Skibidi Toilet", "Cappuccina"},
		Scenes: []ScriptScene{
			{
				Character:     "Skibidi Toilet",
				Action:        "rises slowly out of the bowl",
				Dialogue:      "You thought the espresso machine was yours? Think again.",
				Duration:      4,
				Voice:         "en-US-GuyNeural",
				Audio:         "audio/scene_1.mp3",
				AudioDuration: 3.6,
				Visual:        "footage/Skibidi_Toilet.mp4",
			},
			{
				Character:     "Cappuccina",
				Action:        "spins in disbelief",
				Dialogue:      "Not the oat milk. Anything but the oat milk!",
				Duration:      3,
				Voice:         "en-US-JennyNeural",
				Audio:         "audio/scene_2.mp3",
				AudioDuration: 2.8,
			},
		},
		TotalDuration: 7,
		Tags:          []string{"brainrot", "shorts"},
	}
}

// GetExampleScene returns a fully described scene whose visual is a 2 second
// 1920x1080 landscape clip, the common case of stock footage that has to be
// looped and center-cropped to a portrait canvas.
//
// Outputs:
//   - *Scene: A pointer to a hardcoded Scene object.
func GetExampleScene() *Scene {
	return &Scene{
		Index:   1,
		Speaker: "Skibidi Toilet",
		Visual: &VisualSource{
			Kind:      VisualVideo,
			URI:       "footage/Skibidi_Toilet.mp4",
			Path:      "footage/Skibidi_Toilet.mp4",
			Duration:  2,
			Width:     1920,
			Height:    1080,
			FrameRate: 30,
		},
		Audio: AudioTrack{URI: "audio/scene_1.mp3", Path: "audio/scene_1.mp3", Duration: 7},
		Caption: &CaptionSpec{
			Text:     "Skibidi Toilet:\nYou thought the espresso machine was yours?",
			Position: CaptionPosition{Anchor: AnchorCenter, Y: 1600},
			Style: CaptionStyle{
				FontSize:    50,
				Color:       "white",
				StrokeColor: "black",
				StrokeWidth: 2,
				MaxWidth:    1000,
				LineSpacing: 1.2,
			},
		},
	}
}

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
// This file, `errors.go`, declares the error taxonomy shared by the assembly
// engine. Callers match these with errors.Is; components wrap them with the
// scene or stage that raised them.
package model

import "errors"

var (
	// ErrInvalidDuration is raised for a missing, non-positive or non-finite
	// target duration. Fatal to the scene, never defaulted.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrSourceUnavailable is raised when a visual asset is missing, corrupt
	// or unreadable. Recovered by the fallback colour clip.
	ErrSourceUnavailable = errors.New("visual source unavailable")
	// ErrAudioUnavailable is raised when the audio provider's asset cannot be
	// read. It is an upstream failure and is never recovered locally.
	ErrAudioUnavailable = errors.New("audio unavailable")
	// ErrOverlayRender is raised when a caption cannot be rendered in the
	// requested style. Recovered by a reduced style.
	ErrOverlayRender = errors.New("overlay render failure")
	// ErrSceneAssembly wraps any failure that escaped a scene's own recovery.
	// The scene is skipped; the run continues.
	ErrSceneAssembly = errors.New("scene assembly failure")
	// ErrNoScenesProduced is raised when no scene survived assembly. Fatal to
	// the run; nothing is exported.
	ErrNoScenesProduced = errors.New("no scenes produced")
	// ErrInvalidScript is raised for a script document that cannot be
	// decoded or has no scenes. Retrying the same document cannot help.
	ErrInvalidScript = errors.New("invalid script")
)

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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// scene step that turns whatever the visual provider handed over into a
// usable, fully described VisualSource.
//
// Logic Flow:
//  1. A source that is already described (or a solid colour) is used as is.
//  2. A scene without a visual is looked up in the footage library by speaker.
//  3. The asset is fetched, its type sniffed and its geometry, duration and
//     frame rate probed.
//  4. Any failure along the way is masked by the speaker's fallback colour.
//     This step itself never fails the scene.
package commands

import (
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// ResolveVisual acquires and describes the scene's visual source.
type ResolveVisual struct {
	sceneStep
	assets  *cloud.Assets
	prober  media.Prober
	library *cloud.FootageLibrary
	palette media.Palette
}

// NewResolveVisual creates the visual step. library may be nil, in which case
// scenes without a visual go straight to the fallback.
func NewResolveVisual(name string, assets *cloud.Assets, prober media.Prober, library *cloud.FootageLibrary, palette media.Palette) *ResolveVisual {
	return &ResolveVisual{
		sceneStep: newSceneStep(name),
		assets:    assets,
		prober:    prober,
		library:   library,
		palette:   palette,
	}
}

// Execute implements cor.Command.
func (c *ResolveVisual) Execute(context cor.Context) {
	work := c.work(context)
	src, err := c.resolve(context, work)
	if err != nil {
		work.UseFallback(context.GetContext(), c.palette, err)
	} else {
		work.Visual = src
		work.VisualOutcome = model.VisualFromSource
	}
	c.Succeed(context, work)
}

func (c *ResolveVisual) resolve(context cor.Context, work *SceneWork) (model.VisualSource, error) {
	ctx := context.GetContext()
	var requested model.VisualSource
	if work.Scene.Visual != nil {
		requested = *work.Scene.Visual
	}

	if requested.Kind == model.VisualColor {
		if requested.Width <= 0 || requested.Height <= 0 {
			requested.Width, requested.Height = work.Canvas.Width, work.Canvas.Height
		}
		return requested, nil
	}
	if requested.Described() {
		return requested, nil
	}

	uri := requested.URI
	if uri == "" {
		uri = requested.Path
	}
	if uri == "" {
		if c.library == nil {
			return requested, fmt.Errorf("%w: no visual for %s", model.ErrSourceUnavailable, work.Scene.Label())
		}
		found, err := c.library.Lookup(ctx, work.Scene.Speaker)
		if err != nil {
			return requested, unavailable(err)
		}
		uri = found
	}

	path, temp, err := c.assets.Fetch(ctx, uri, work.WorkDir)
	if err != nil {
		return requested, unavailable(err)
	}
	if temp {
		context.AddTempFile(path)
	}

	src, err := c.prober.ProbeVisual(ctx, path)
	if err != nil {
		return requested, unavailable(err)
	}
	src.URI = uri
	src.Path = path
	return src, nil
}

// unavailable marks err as ErrSourceUnavailable unless it already is.
func unavailable(err error) error {
	if errors.Is(err, model.ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrSourceUnavailable, err)
}

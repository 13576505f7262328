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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file gathers the
// collaborators the pipelines are built from.
package workflow

import (
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
)

// Dependencies are the collaborators shared by the assembly workflows. Tests
// replace the prober and renderer with fakes; a nil Footage library, Renderer
// or BigQuery client disables the steps that need them.
type Dependencies struct {
	Assets   *cloud.Assets
	Prober   media.Prober
	Measurer media.TextMeasurer
	Renderer media.Renderer
	Footage  *cloud.FootageLibrary
	BigQuery *bigquery.Client
}

// NewDependencies wires the production collaborators from the configuration.
// clients may be nil when running against local files only.
//
// Inputs:
//   - config: The application configuration.
//   - clients: The Google Cloud clients, or nil.
//
// Outputs:
//   - *Dependencies: The collaborators.
func NewDependencies(config *cloud.Config, clients *cloud.ServiceClients) *Dependencies {
	out := &Dependencies{
		Prober:   media.NewFFProbe(time.Duration(config.Export.ProbeTimeoutSeconds) * time.Second),
		Measurer: media.NewFontMeasurer(),
		Renderer: media.NewFFmpegRenderer(config.Export.EncodeSettings, config.Export.WorkDir),
	}
	if clients != nil {
		out.Assets = cloud.NewAssets(clients.StorageClient, config.Storage.GCSFuseMountPoint)
		out.BigQuery = clients.BiqQueryClient
	} else {
		out.Assets = cloud.NewAssets(nil, config.Storage.GCSFuseMountPoint)
	}
	if config.Footage.Dir != "" {
		out.Footage = cloud.NewFootageLibrary(config.Footage, out.Assets)
	}
	return out
}

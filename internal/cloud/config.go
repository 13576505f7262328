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

// Package cloud defines the application configuration, loaded from TOML
// files, and the components that talk to Google Cloud services.
//
// This file centralizes the configuration structs. Every assembly parameter
// (canvas, loop policy, caption style, fallback colours, encoder settings) is
// declared once here and handed to the engine as a value, so one pipeline can
// serve every variant of a short by configuration alone.
//
// Structs:
//   - Application: Project wide settings, logging and telemetry switches.
//   - LoopPolicy: How short footage is extended and long footage shortened.
//   - CaptionConfig: Caption text construction and style.
//   - FallbackConfig: Speaker colour table for scenes without footage.
//   - ExportConfig: Encoder settings and the intermediate work directory.
//   - Storage, FootageConfig, BigQueryDataSource, TopicSubscription, Server.
//   - Config: The top-level struct that aggregates the others.
package cloud

import (
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// Supported loop policy values.
const (
	LoopWholeClip   = "whole-clip"
	TrimLeading     = "leading"
	ScriptTopicName = "ScriptTopic"
)

// Application holds general application settings.
type Application struct {
	Name                      string `toml:"name"`
	GoogleProjectId           string `toml:"google_project_id"`
	GoogleLocation            string `toml:"location"`
	SignerServiceAccountEmail string `toml:"signer_service_account_email"` // Used for signing GCS URLs.
	LogLevel                  string `toml:"log_level"`                    // debug, info, warn or error.
	TelemetryEnabled          bool   `toml:"telemetry_enabled"`            // Export traces and metrics to Cloud Operations.
}

// LoopPolicy selects how durations are matched. Only whole-clip repetition
// with leading-segment trimming is implemented.
type LoopPolicy struct {
	Mode string `toml:"mode"`
	Trim string `toml:"trim"`
}

// CaptionConfig controls caption construction and style.
type CaptionConfig struct {
	Enabled        bool                  `toml:"enabled"`
	IncludeSpeaker bool                  `toml:"include_speaker"` // Prefix the dialogue with "<speaker>:".
	MaxChars       int                   `toml:"max_chars"`       // Dialogue is cut to this many characters.
	FallbackFamily string                `toml:"fallback_family"` // Font family used by the reduced style.
	Position       model.CaptionPosition `toml:"position"`
	Style          model.CaptionStyle    `toml:"style"`
}

// FallbackConfig is the colour table used when a scene has no usable footage.
type FallbackConfig struct {
	Default model.RGB            `toml:"default"`
	Colors  map[string]model.RGB `toml:"colors"`
}

// ExportConfig holds the encoder settings shared by every scene and the
// export step.
type ExportConfig struct {
	media.EncodeSettings
	WorkDir             string `toml:"work_dir"`              // Intermediate scene renders; empty uses the OS temp dir.
	ProbeTimeoutSeconds int    `toml:"probe_timeout_seconds"` // Upper bound for a single ffprobe call.
	RenderScenes        bool   `toml:"render_scenes"`         // Render each scene as soon as it is assembled.
}

// Storage represents the configuration for storage buckets.
type Storage struct {
	ScriptBucket      string `toml:"script_bucket"`        // Bucket the Pub/Sub trigger watches for script uploads.
	OutputBucket      string `toml:"output_bucket"`        // Bucket finished shorts are uploaded to.
	GCSFuseMountPoint string `toml:"gcs_fuse_mount_point"` // When set, gs:// assets are read through the mount.
}

// FootageConfig locates the footage library. Dir is a local directory or a
// gs://bucket/prefix URI.
type FootageConfig struct {
	Dir       string `toml:"dir"`
	Extension string `toml:"extension"`
}

// BigQueryDataSource represents the configuration for run report storage.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`
	ReportTable string `toml:"report_table"`
}

// TopicSubscription represents the configuration for a Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
	RunsPerMinute    int    `toml:"runs_per_minute"` // Throttle for triggered runs; zero disables it.
}

// Server configures the HTTP API.
type Server struct {
	Port              int      `toml:"port"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	AllowedOrigins    []string `toml:"allowed_origins"`
}

// Config represents the overall configuration for the application.
type Config struct {
	Application        Application                  `toml:"application"`
	Canvas             model.Canvas                 `toml:"canvas"`
	Loop               LoopPolicy                   `toml:"loop"`
	Caption            CaptionConfig                `toml:"caption"`
	Fallback           FallbackConfig               `toml:"fallback"`
	Export             ExportConfig                 `toml:"export"`
	Storage            Storage                      `toml:"storage"`
	Footage            FootageConfig                `toml:"footage"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	Server             Server                       `toml:"server"`
}

// NewConfig returns a configuration populated with the defaults every
// deployment starts from: a 1080x1920 portrait canvas at 30 fps, libx264/aac,
// bold white captions with a black outline at y=1600, and the colour table
// of the recurring characters. TOML files only need to override what differs.
//
// Outputs:
//   - *Config: A pointer to the initialised Config.
func NewConfig() *Config {
	return &Config{
		Application: Application{
			Name:     "shorts-assembly",
			LogLevel: "info",
		},
		Canvas: model.Canvas{Width: 1080, Height: 1920, FrameRate: 30},
		Loop:   LoopPolicy{Mode: LoopWholeClip, Trim: TrimLeading},
		Caption: CaptionConfig{
			Enabled:        true,
			IncludeSpeaker: true,
			MaxChars:       80,
			FallbackFamily: "Sans",
			Position:       model.CaptionPosition{Anchor: model.AnchorCenter, Y: 1600},
			Style: model.CaptionStyle{
				FontFile:    "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
				FontSize:    50,
				Color:       "white",
				StrokeColor: "black",
				StrokeWidth: 2,
				MaxWidth:    1000,
				LineSpacing: 1.2,
			},
		},
		Fallback: FallbackConfig{
			Default: model.RGB{R: 50, G: 50, B: 50},
			Colors: map[string]model.RGB{
				"Skibidi Toilet":   {R: 30, G: 30, B: 30},
				"Cappuccina":       {R: 139, G: 69, B: 19},
				"Tung Tung Sahur":  {R: 255, G: 215, B: 0},
				"Mr Pen Pineapple": {R: 255, G: 165, B: 0},
			},
		},
		Export: ExportConfig{
			EncodeSettings: media.EncodeSettings{
				FFmpegPath:   "ffmpeg",
				VideoCodec:   "libx264",
				AudioCodec:   "aac",
				Preset:       "fast",
				AudioBitrate: "192k",
				PixelFormat:  "yuv420p",
			},
			ProbeTimeoutSeconds: 30,
		},
		Footage:            FootageConfig{Dir: "footage", Extension: ".mp4"},
		TopicSubscriptions: make(map[string]TopicSubscription),
		Server:             Server{Port: 8080, RequestsPerSecond: 5, Burst: 10},
	}
}

// Validate checks the settings the engine cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas must have a positive size, got %dx%d", c.Canvas.Width, c.Canvas.Height))
	}
	if c.Canvas.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("canvas fps must be positive, got %v", c.Canvas.FrameRate))
	}
	if c.Loop.Mode != LoopWholeClip {
		errs = append(errs, fmt.Errorf("unsupported loop mode %q", c.Loop.Mode))
	}
	if c.Loop.Trim != TrimLeading {
		errs = append(errs, fmt.Errorf("unsupported trim policy %q", c.Loop.Trim))
	}
	if c.Caption.Enabled && (c.Caption.Style.FontSize <= 0 || c.Caption.Style.MaxWidth <= 0) {
		errs = append(errs, errors.New("caption font size and max width must be positive"))
	}
	return errors.Join(errs...)
}

// ScriptOptions returns the options used to turn script entries into scenes.
func (c *Config) ScriptOptions() model.ScriptOptions {
	return model.ScriptOptions{
		CaptionsEnabled: c.Caption.Enabled,
		IncludeSpeaker:  c.Caption.IncludeSpeaker,
		MaxChars:        c.Caption.MaxChars,
		Position:        c.Caption.Position,
		Style:           c.Caption.Style,
	}
}

// Palette returns the fallback colour table.
func (c *Config) Palette() media.Palette {
	return media.Palette{Colors: c.Fallback.Colors, Default: c.Fallback.Default}
}

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

// Package cloud provides components for interacting with Google Cloud services.
// This file contains the hierarchical configuration loader and small helpers
// shared by the package.
//
// Functions:
//   - LoadConfig: Reads a base configuration file and then overwrites values
//     with an environment-specific file (e.g., .env.local.toml, .env.test.toml).
//     The directory and environment are taken from environment variables.
//   - ParseGCSURI / GCSURI: Split and build gs://bucket/object URIs.
package cloud

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	ConfigFileBaseName  = ".env"
	ConfigFileExtension = ".toml"
	ConfigSeparator     = "."
	EnvConfigFilePrefix = "SHORTS_CONFIG_PREFIX" // Directory holding the configuration files.
	EnvConfigRuntime    = "SHORTS_RUNTIME"       // Runtime context, e.g. "local", "test", "prod".
	DefaultRuntime      = "test"
	GCSScheme           = "gs://"
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime-specific configuration file names
// for the current environment.
func ConfigFiles() (base string, runtime string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}
	env := os.Getenv(EnvConfigRuntime)
	if env == "" {
		env = DefaultRuntime
	}
	base = prefix + ConfigFileBaseName + ConfigFileExtension
	runtime = prefix + ConfigFileBaseName + ConfigSeparator + env + ConfigFileExtension
	return base, runtime
}

// LoadConfig decodes the base configuration file and then the runtime
// override into baseConfig. Missing files are skipped; values absent from
// both keep whatever baseConfig already holds, so callers pass a struct
// pre-filled with defaults.
//
// Inputs:
//   - baseConfig: A pointer to the struct to populate.
//
// Outputs:
//   - error: The first decoding error, naming the offending file.
func LoadConfig(baseConfig interface{}) error {
	base, runtime := ConfigFiles()
	for _, file := range []string{base, runtime} {
		if !fileExists(file) {
			slog.Debug("configuration file not found, skipping", slog.String("file", file))
			continue
		}
		if _, err := toml.DecodeFile(file, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", file, err)
		}
		slog.Info("loaded configuration", slog.String("file", file))
	}
	return nil
}

// ParseGCSURI splits gs://bucket/object. ok is false for anything else,
// including a URI without an object name.
func ParseGCSURI(uri string) (bucket string, object string, ok bool) {
	rest, found := strings.CutPrefix(uri, GCSScheme)
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

// GCSURI builds gs://bucket/object.
func GCSURI(bucket string, object string) string {
	return GCSScheme + bucket + "/" + strings.TrimPrefix(object, "/")
}

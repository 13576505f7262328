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

package cloud

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// FootageLibrary finds a speaker's stock footage by naming convention: the
// speaker label with spaces replaced by underscores, plus the configured
// extension, inside the library directory. "Tung Tung Sahur" resolves to
// <dir>/Tung_Tung_Sahur.mp4.
type FootageLibrary struct {
	dir    string
	ext    string
	assets *Assets
}

// NewFootageLibrary creates a library rooted at dir, a local directory or a
// gs://bucket/prefix URI.
func NewFootageLibrary(config FootageConfig, assets *Assets) *FootageLibrary {
	ext := config.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &FootageLibrary{dir: strings.TrimSuffix(config.Dir, "/"), ext: ext, assets: assets}
}

// FileName returns the file name footage for speaker is expected under.
func (l *FootageLibrary) FileName(speaker string) string {
	return strings.Join(strings.Fields(speaker), "_") + l.ext
}

// URI returns where footage for speaker is expected.
func (l *FootageLibrary) URI(speaker string) string {
	if strings.HasPrefix(l.dir, GCSScheme) {
		return l.dir + "/" + l.FileName(speaker)
	}
	return filepath.Join(l.dir, l.FileName(speaker))
}

// Lookup returns the footage URI for speaker, or ErrAssetNotFound.
func (l *FootageLibrary) Lookup(ctx context.Context, speaker string) (string, error) {
	if strings.TrimSpace(speaker) == "" {
		return "", fmt.Errorf("%w: scene has no speaker", ErrAssetNotFound)
	}
	uri := l.URI(speaker)
	ok, err := l.assets.Exists(ctx, uri)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrAssetNotFound, uri)
	}
	return uri, nil
}

// List returns the speakers that have footage, sorted.
func (l *FootageLibrary) List(ctx context.Context) ([]string, error) {
	var names []string
	if bucket, prefix, ok := splitGCSDir(l.dir); ok {
		if l.assets.client == nil {
			return nil, errors.New("no storage client to list footage")
		}
		it := l.assets.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
		for {
			attrs, err := it.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("failed to list footage: %w", err)
			}
			names = append(names, path.Base(attrs.Name))
		}
	} else {
		entries, err := os.ReadDir(l.dir)
		if err != nil {
			return nil, fmt.Errorf("failed to list footage: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}

	var speakers []string
	for _, name := range names {
		if l.ext != "" && !strings.EqualFold(filepath.Ext(name), l.ext) {
			continue
		}
		speakers = append(speakers, strings.ReplaceAll(strings.TrimSuffix(name, filepath.Ext(name)), "_", " "))
	}
	sort.Strings(speakers)
	return speakers, nil
}

// splitGCSDir splits gs://bucket[/prefix] into the bucket and a prefix ending
// in "/" (or empty).
func splitGCSDir(dir string) (bucket string, prefix string, ok bool) {
	rest, found := strings.CutPrefix(dir, GCSScheme)
	if !found || rest == "" {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return bucket, prefix, true
}

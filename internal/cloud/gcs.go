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

// Package cloud contains data structures and utilities for interacting with
// Google Cloud services. This file covers Google Cloud Storage: the payload of
// GCS Pub/Sub notifications, a lightweight object reference, and Assets, which
// makes local paths and gs:// URIs readable through one interface.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
)

// ErrAssetNotFound is returned when an asset does not exist.
var ErrAssetNotFound = errors.New("asset not found")

// GetGCSObjectName returns the context key under which the triggering
// GCSObject is stored.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification maps the JSON payload of a GCS object notification.
type GCSPubSubNotification struct {
	Kind                    string                 `json:"kind"`
	ID                      string                 `json:"id"`
	SelfLink                string                 `json:"selfLink"`
	Name                    string                 `json:"name"`
	Bucket                  string                 `json:"bucket"`
	Generation              string                 `json:"generation"`
	MetaGeneration          string                 `json:"metageneration"`
	ContentType             string                 `json:"contentType"`
	TimeCreated             string                 `json:"timeCreated"`
	Updated                 string                 `json:"updated"`
	StorageClass            string                 `json:"storageClass"`
	TimeStorageClassUpdated string                 `json:"timeStorageClassUpdated"`
	Size                    string                 `json:"size"`
	MD5Hash                 string                 `json:"md5Hash"`
	MediaLink               string                 `json:"mediaLink"`
	MetaData                map[string]interface{} `json:"metadata"`
	Crc32c                  string                 `json:"crc32c"`
	ETag                    string                 `json:"etag"`
}

// GCSObject is a reference to one object.
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

// URI returns gs://bucket/name.
func (o *GCSObject) URI() string {
	return GCSURI(o.Bucket, o.Name)
}

// Assets reads and writes media assets addressed either by local path or by
// gs:// URI. When a GCS FUSE mount point is configured, gs:// assets are read
// through the mount instead of being downloaded.
type Assets struct {
	client    *storage.Client
	fuseMount string
}

// NewAssets creates an Assets. client may be nil when only local paths are
// used.
func NewAssets(client *storage.Client, fuseMount string) *Assets {
	return &Assets{client: client, fuseMount: fuseMount}
}

func (a *Assets) mounted(bucket, object string) string {
	return filepath.Join(a.fuseMount, bucket, filepath.FromSlash(object))
}

// Exists reports whether the asset at uri exists.
func (a *Assets) Exists(ctx context.Context, uri string) (bool, error) {
	bucket, object, isGCS := ParseGCSURI(uri)
	if !isGCS {
		return fileExists(uri), nil
	}
	if a.fuseMount != "" {
		return fileExists(a.mounted(bucket, object)), nil
	}
	if a.client == nil {
		return false, fmt.Errorf("no storage client to check %s", uri)
	}
	_, err := a.client.Bucket(bucket).Object(object).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Fetch makes the asset at uri available as a local file.
//
// Inputs:
//   - ctx: Controls the download.
//   - uri: A local path or gs:// URI.
//   - dir: Where downloads are written; empty uses the OS temp dir.
//
// Outputs:
//   - path: A readable local path.
//   - temp: True when path was created by this call and must be removed by
//     the caller.
//   - err: ErrAssetNotFound when the asset does not exist.
func (a *Assets) Fetch(ctx context.Context, uri string, dir string) (path string, temp bool, err error) {
	bucket, object, isGCS := ParseGCSURI(uri)
	switch {
	case !isGCS:
		if _, err := os.Stat(uri); err != nil {
			return "", false, fmt.Errorf("%w: %s: %w", ErrAssetNotFound, uri, err)
		}
		return uri, false, nil
	case a.fuseMount != "":
		path := a.mounted(bucket, object)
		if !fileExists(path) {
			return "", false, fmt.Errorf("%w: %s", ErrAssetNotFound, uri)
		}
		return path, false, nil
	}

	file, err := os.CreateTemp(dir, "asset-*"+filepath.Ext(object))
	if err != nil {
		return "", false, fmt.Errorf("could not create temp file: %w", err)
	}
	if err := a.Download(ctx, bucket, object, file); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", false, err
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", false, err
	}
	return file.Name(), true, nil
}

// Download streams gs://bucket/object into w.
func (a *Assets) Download(ctx context.Context, bucket string, object string, w io.Writer) error {
	if a.client == nil {
		return fmt.Errorf("no storage client to read %s", GCSURI(bucket, object))
	}
	reader, err := a.client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, GCSURI(bucket, object))
	}
	if err != nil {
		return fmt.Errorf("failed to create GCS reader for %s: %w", GCSURI(bucket, object), err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close GCS reader", slog.Any("error", err))
		}
	}()
	written, err := io.Copy(w, reader)
	if err != nil {
		return fmt.Errorf("failed to copy %s after %d bytes: %w", GCSURI(bucket, object), written, err)
	}
	return nil
}

// Upload copies the local file at path to gs://bucket/object.
func (a *Assets) Upload(ctx context.Context, path string, bucket string, object string) error {
	if a.client == nil {
		return fmt.Errorf("no storage client to write %s", GCSURI(bucket, object))
	}
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer src.Close()

	writer := a.client.Bucket(bucket).Object(object).NewWriter(ctx)
	writer.ContentType = "video/mp4"
	if written, err := io.Copy(writer, src); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to copy to GCS or partial write: %d total bytes: %w", written, err)
	}
	// The object only exists once Close succeeds.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", GCSURI(bucket, object), err)
	}
	return nil
}

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

package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	test "github.com/jaycherian/gcp-go-shorts-assembly/internal/testutil"
	"github.com/zeebo/assert"
	"google.golang.org/api/option"
)

func TestObjectFromURI(t *testing.T) {
	cases := []struct {
		uri, bucket, object string
	}{
		{"gs://shorts-out/run/short.mp4", "shorts-out", "run/short.mp4"},
		{"https://storage.mtls.cloud.google.com/shorts-out/short.mp4", "shorts-out", "short.mp4"},
		{"https://storage.cloud.google.com/shorts-out/a/b.mp4", "shorts-out", "a/b.mp4"},
	}
	for _, c := range cases {
		bucket, object, err := ObjectFromURI(c.uri)
		assert.NoError(t, err)
		assert.Equal(t, c.bucket, bucket)
		assert.Equal(t, c.object, object)
	}

	for _, bad := range []string{"", "gs://bucket-only", "https://example.com/a/b", "/tmp/short.mp4"} {
		_, _, err := ObjectFromURI(bad)
		assert.That(t, errors.Is(err, ErrInvalidObjectURI))
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, ClampLimit(0))
	assert.Equal(t, DefaultListLimit, ClampLimit(-5))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxListLimit, ClampLimit(MaxListLimit+1))
}

func newUnauthenticatedStorage(t *testing.T) *storage.Client {
	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	test.HandleErr(err, t)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGenerateSignedURLSignsAsServiceAccount(t *testing.T) {
	var signed []byte
	s := &ReportService{
		StorageClient: newUnauthenticatedStorage(t),
		SignerEmail:   "shorts-signer@my-project.iam.gserviceaccount.com",
		signBlob: func(ctx context.Context, payload []byte) ([]byte, error) {
			signed = payload
			return []byte("sig"), nil
		},
	}

	u, err := s.GenerateSignedURL(context.Background(), "gs://shorts-out/run/short.mp4", 15*time.Minute)
	assert.NoError(t, err)
	assert.That(t, len(signed) > 0)
	assert.That(t, strings.Contains(u, "/shorts-out/run/short.mp4"))
	assert.That(t, strings.Contains(u, "X-Goog-Algorithm=GOOG4-RSA-SHA256"))
	// hex("sig")
	assert.That(t, strings.Contains(u, "X-Goog-Signature=736967"))
}

func TestGenerateSignedURLErrors(t *testing.T) {
	s := &ReportService{StorageClient: newUnauthenticatedStorage(t), SignerEmail: "signer@example.com"}

	_, err := s.GenerateSignedURL(context.Background(), "not-a-uri", time.Minute)
	assert.That(t, errors.Is(err, ErrInvalidObjectURI))

	// No IAM client and no signer: signing itself must fail.
	_, err = s.GenerateSignedURL(context.Background(), "gs://shorts-out/short.mp4", time.Minute)
	assert.Error(t, err)

	_, err = (&ReportService{}).GenerateSignedURL(context.Background(), "gs://shorts-out/short.mp4", time.Minute)
	assert.Error(t, err)
}

func TestQueriesWithoutBigQuery(t *testing.T) {
	s := NewReportService(cloud.NewConfig(), nil)
	_, err := s.Get(context.Background(), "run")
	assert.Error(t, err)
	_, err = s.List(context.Background(), 5)
	assert.Error(t, err)
	_, err = s.Stats(context.Background())
	assert.Error(t, err)
}

// TestReportServiceLive reads the configured report table. It needs
// credentials and a deployed dataset, so it only runs when
// SHORTS_INTEGRATION is set.
func TestReportServiceLive(t *testing.T) {
	if os.Getenv("SHORTS_INTEGRATION") == "" {
		t.Skip("SHORTS_INTEGRATION not set")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := test.GetConfig()
	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	test.HandleErr(err, t)
	defer cloudClients.Close()

	s := NewReportService(config, cloudClients)
	reports, err := s.List(ctx, 5)
	assert.NoError(t, err)
	assert.That(t, len(reports) <= 5)

	stats, err := s.Stats(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, stats)

	_, err = s.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.That(t, errors.Is(err, ErrReportNotFound))
}

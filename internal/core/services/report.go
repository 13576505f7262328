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

// Package services contains the business logic for interacting with data sources.
// This file, `report.go`, defines the ReportService, which reads run reports
// back out of BigQuery for the HTTP API and generates time-limited URLs for
// streaming finished shorts out of Google Cloud Storage (GCS).
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
	"google.golang.org/api/iterator"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var (
	ErrReportNotFound   = errors.New("run report not found")
	ErrInvalidObjectURI = errors.New("invalid GCS object URI")
)

// Accepted browser-style prefixes for GCS objects, besides gs://.
var objectURLPrefixes = []string{
	"https://storage.mtls.cloud.google.com/",
	"https://storage.cloud.google.com/",
	"https://storage.googleapis.com/",
}

// StatusCount is the number of runs that ended in one status.
type StatusCount struct {
	Status      string  `json:"status" bigquery:"status"`
	Runs        int64   `json:"runs" bigquery:"runs"`
	AvgDuration float64 `json:"avg_duration" bigquery:"avg_duration"`
}

// SpeakerCount is the number of skipped scenes for one character.
type SpeakerCount struct {
	Speaker string `json:"speaker" bigquery:"speaker"`
	Dropped int64  `json:"dropped" bigquery:"dropped"`
}

// RunStats aggregates the report table for the dashboard.
type RunStats struct {
	Runs             int64          `json:"runs"`
	ByStatus         []StatusCount  `json:"by_status"`
	DroppedBySpeaker []SpeakerCount `json:"dropped_by_speaker"`
}

// ReportService encapsulates the clients and configuration needed to read
// run reports and sign output URLs.
type ReportService struct {
	BigqueryClient *bigquery.Client                  // Client for reading the report table.
	StorageClient  *storage.Client                   // Client used to build signed URLs.
	IAMClient      *credentials.IamCredentialsClient // Signs URL payloads as SignerEmail.
	SignerEmail    string                            // Service account the URLs are signed as.
	DatasetName    string
	ReportTable    string

	signBlob func(ctx context.Context, payload []byte) ([]byte, error)
}

// NewReportService wires a ReportService from the shared cloud clients.
// clients may be nil, in which case only URI parsing works.
func NewReportService(config *cloud.Config, clients *cloud.ServiceClients) *ReportService {
	s := &ReportService{
		SignerEmail: config.Application.SignerServiceAccountEmail,
		DatasetName: config.BigQueryDataSource.DatasetName,
		ReportTable: config.BigQueryDataSource.ReportTable,
	}
	if clients != nil {
		s.BigqueryClient = clients.BiqQueryClient
		s.StorageClient = clients.StorageClient
		s.IAMClient = clients.IAMClient
	}
	return s
}

// GetFQN returns the fully qualified report table name in the dotted form
// standard SQL expects, e.g. `gcp-project-id.shorts.run_reports`.
func (s *ReportService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.ReportTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

func (s *ReportService) query(text string, params ...bigquery.QueryParameter) (*bigquery.Query, error) {
	if s.BigqueryClient == nil {
		return nil, errors.New("bigquery client is not configured")
	}
	q := s.BigqueryClient.Query(fmt.Sprintf(text, s.GetFQN()))
	q.Parameters = params
	return q, nil
}

// readAll drains a query into a slice of T.
func readAll[T any](ctx context.Context, q *bigquery.Query) ([]T, error) {
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	for {
		var row T
		err := itr.Next(&row)
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
}

// Get retrieves the report of a single run.
//
// Inputs:
//   - ctx: The context for the request, used for cancellation and tracing.
//   - id: The run id.
//
// Outputs:
//   - *model.RunReport: The newest report stored for the run.
//   - error: ErrReportNotFound if no report exists, or the query error.
func (s *ReportService) Get(ctx context.Context, id string) (*model.RunReport, error) {
	q, err := s.query(QryGetReport, bigquery.QueryParameter{Name: "id", Value: id})
	if err != nil {
		return nil, err
	}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	report := &model.RunReport{}
	err = itr.Next(report)
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	return report, err
}

// List returns the most recent reports, newest first.
func (s *ReportService) List(ctx context.Context, limit int) ([]model.RunReport, error) {
	q, err := s.query(QryListReports, bigquery.QueryParameter{Name: "limit", Value: ClampLimit(limit)})
	if err != nil {
		return nil, err
	}
	return readAll[model.RunReport](ctx, q)
}

// Stats aggregates runs by status and skipped scenes by character.
func (s *ReportService) Stats(ctx context.Context) (*RunStats, error) {
	q, err := s.query(QryStatusCounts)
	if err != nil {
		return nil, err
	}
	byStatus, err := readAll[StatusCount](ctx, q)
	if err != nil {
		return nil, err
	}
	if q, err = s.query(QryDroppedBySpeaker); err != nil {
		return nil, err
	}
	dropped, err := readAll[SpeakerCount](ctx, q)
	if err != nil {
		return nil, err
	}
	stats := &RunStats{ByStatus: byStatus, DroppedBySpeaker: dropped}
	for _, c := range byStatus {
		stats.Runs += c.Runs
	}
	return stats, nil
}

// ClampLimit bounds a caller supplied page size to [1, MaxListLimit],
// substituting DefaultListLimit for non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}

// ObjectFromURI splits a gs:// URI or a browser URL of a GCS object into its
// bucket and object name.
func ObjectFromURI(uri string) (bucket string, object string, err error) {
	if b, o, ok := cloud.ParseGCSURI(uri); ok {
		return b, o, nil
	}
	for _, prefix := range objectURLPrefixes {
		rest, found := strings.CutPrefix(uri, prefix)
		if !found {
			continue
		}
		b, o, found := strings.Cut(rest, "/")
		if found && b != "" && o != "" {
			return b, o, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrInvalidObjectURI, uri)
}

func (s *ReportService) sign(ctx context.Context, payload []byte) ([]byte, error) {
	if s.signBlob != nil {
		return s.signBlob(ctx, payload)
	}
	if s.IAMClient == nil {
		return nil, errors.New("iam credentials client is not configured")
	}
	resp, err := s.IAMClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
		Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
	}
	return resp.SignedBlob, nil
}

// GenerateSignedURL creates a time-limited URL to a private GCS object so a
// browser can stream a finished short without credentials of its own. When
// SignerEmail is set the payload is signed through the IAM Credentials API,
// which avoids local service account keys; otherwise the storage client's
// default credentials sign it.
//
// Inputs:
//   - ctx: The context for the request.
//   - uri: gs://bucket/object or a storage.cloud.google.com URL.
//   - expires: How long the URL stays valid.
//
// Outputs:
//   - string: The V4 signed URL.
//   - error: An error if the URI cannot be parsed or signing fails.
func (s *ReportService) GenerateSignedURL(ctx context.Context, uri string, expires time.Duration) (string, error) {
	bucketName, objectName, err := ObjectFromURI(uri)
	if err != nil {
		return "", err
	}
	if s.StorageClient == nil {
		return "", errors.New("storage client is not configured")
	}
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expires),
	}
	if s.SignerEmail != "" {
		opts.GoogleAccessID = s.SignerEmail
		opts.SignBytes = func(b []byte) ([]byte, error) {
			return s.sign(ctx, b)
		}
	}
	u, err := s.StorageClient.Bucket(bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).Object(%q).SignedURL: %w", bucketName, objectName, err)
	}
	return u, nil
}

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
// command that turns a GCS object notification into a script reference.
//
// Logic Flow:
//  1. Unmarshal the Pub/Sub payload into a GCSPubSubNotification.
//  2. Ignore objects that are not scripts (wrong bucket or extension) with
//     ErrNotAScript, which the listener acknowledges instead of retrying.
//  3. Derive the run ID from the object URI, so a redelivered notification
//     maps onto the same run.
//  4. Publish the GCSObject for the next command and under its well-known key.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
)

// ErrNotAScript is recorded for notifications about objects that are not
// scripts. It is a permanent condition.
var ErrNotAScript = errors.New("object is not a script")

// ScriptTriggerToGCSObject parses script upload notifications.
type ScriptTriggerToGCSObject struct {
	cor.BaseCommand
	bucket    string // Only objects of this bucket are accepted; empty accepts any.
	extension string
}

// NewScriptTriggerToGCSObject creates the trigger reader for .json scripts
// uploaded to bucket.
func NewScriptTriggerToGCSObject(name string, bucket string) *ScriptTriggerToGCSObject {
	return &ScriptTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name), bucket: bucket, extension: ".json"}
}

// IsExecutable requires the raw message text.
func (c *ScriptTriggerToGCSObject) IsExecutable(context cor.Context) bool {
	_, ok := context.Get(c.GetInputParam()).(string)
	return ok
}

// Execute implements cor.Command.
func (c *ScriptTriggerToGCSObject) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var out cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &out); err != nil {
		c.Fail(context, fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}
	if out.Bucket == "" || out.Name == "" {
		c.Fail(context, fmt.Errorf("%w: notification names no object", ErrNotAScript))
		return
	}
	if c.bucket != "" && out.Bucket != c.bucket {
		c.Fail(context, fmt.Errorf("%w: gs://%s/%s is outside bucket %s", ErrNotAScript, out.Bucket, out.Name, c.bucket))
		return
	}
	if !strings.EqualFold(path.Ext(out.Name), c.extension) {
		c.Fail(context, fmt.Errorf("%w: gs://%s/%s", ErrNotAScript, out.Bucket, out.Name))
		return
	}

	msg := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType}
	context.Add(cloud.GetGCSObjectName(), msg)
	context.Add(RunIDParam, model.NewRunID(msg.URI()))
	c.Succeed(context, msg)
}

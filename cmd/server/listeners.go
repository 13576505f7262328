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

// Package main contains the logic for setting up and starting the Pub/Sub message listeners.
// The script listener starts a timeline build whenever a script document is
// uploaded to the script bucket.
package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/commands"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/workflow"
)

// AckTerminal acknowledges failures that a redelivery of the same message
// would reproduce: notifications for other objects, unreadable scripts and
// runs in which no scene survived. Everything else is left for Pub/Sub to
// redeliver and, eventually, dead-letter.
func AckTerminal(err error) bool {
	return errors.Is(err, commands.ErrNotAScript) ||
		errors.Is(err, model.ErrInvalidScript) ||
		errors.Is(err, model.ErrNoScenesProduced)
}

// SetupListeners attaches the script trigger workflow to its subscription
// and starts receiving in the background.
//
// Inputs:
//   - ctx: The application's root context; cancelling it stops the listener.
//   - config: The application configuration.
//   - cloudClients: The initialized clients, including the listeners.
//   - deps: The collaborators shared with the HTTP routes.
func SetupListeners(ctx context.Context, config *cloud.Config, cloudClients *cloud.ServiceClients, deps *workflow.Dependencies) {
	listener, ok := cloudClients.PubSubListeners[cloud.ScriptTopicName]
	if !ok {
		slog.WarnContext(ctx, "no script subscription configured, uploads will not trigger runs")
		return
	}
	sub := config.TopicSubscriptions[cloud.ScriptTopicName]

	trigger := workflow.NewScriptTriggerWorkflow(config, deps)
	listener.SetCommand(cloud.NewQuotaAwareCommand(trigger, sub.RunsPerMinute))
	listener.SetAckPolicy(AckTerminal)
	listener.Listen(ctx)
}

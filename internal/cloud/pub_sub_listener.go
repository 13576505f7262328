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
// This file defines a reusable Pub/Sub listener that hands every message to a
// cor.Command.
//
// Logic Flow:
//  1. A listener is created for one subscription; its command is attached
//     once the workflow is built.
//  2. `Listen` starts a goroutine that receives messages until the context is
//     cancelled.
//  3. Each message runs the command in a fresh cor.Context with the message
//     data as input, inside its own span.
//  4. Successful runs are acknowledged. Failed runs are acknowledged only when
//     the ack policy says the failure is permanent; otherwise they are left for
//     redelivery under the subscription's retry policy.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AckPolicy decides whether a failed message should still be acknowledged.
type AckPolicy func(err error) bool

// PubSubListener connects a subscription to a processing command.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
	ackPolicy    AckPolicy
}

// NewPubSubListener creates a listener for subscriptionID.
//
// Inputs:
//   - pubsubClient: An authenticated client.
//   - subscriptionID: The subscription to receive from.
//   - command: The command run for each message; may be set later.
//
// Outputs:
//   - *PubSubListener: The listener.
//   - error: Always nil; kept for symmetry with the other constructors.
func NewPubSubListener(pubsubClient *pubsub.Client, subscriptionID string, command cor.Command) (cmd *PubSubListener, err error) {
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		command:      command,
	}, nil
}

// SetCommand attaches command if none is attached yet.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// SetAckPolicy sets the policy for failed messages.
func (m *PubSubListener) SetAckPolicy(policy AckPolicy) {
	m.ackPolicy = policy
}

// Handle runs the command for one message payload and reports whether the
// message should be acknowledged.
func (m *PubSubListener) Handle(ctx context.Context, data []byte) bool {
	tracer := otel.Tracer("message-listener")
	spanCtx, span := tracer.Start(ctx, "receive-message")
	defer span.End()
	span.SetAttributes(attribute.Int("msg.size", len(data)))

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(spanCtx)
	chainCtx.Add(cor.CtxIn, string(data))

	m.command.Execute(chainCtx)

	err := chainCtx.Err()
	if err == nil {
		span.SetStatus(codes.Ok, "success")
		return true
	}
	span.SetStatus(codes.Error, "failed")
	span.RecordError(err)
	ack := m.ackPolicy != nil && m.ackPolicy(err)
	slog.ErrorContext(spanCtx, "error executing chain", slog.Any("error", err), slog.Bool("ack", ack))
	return ack
}

// Listen receives messages in the background until ctx is cancelled.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.InfoContext(ctx, "listening", slog.String("subscription", m.subscription.String()))
	go func() {
		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			if m.Handle(msgCtx, msg.Data) {
				msg.Ack()
			}
		})
		if err != nil {
			slog.ErrorContext(ctx, "error receiving data", slog.Any("error", err))
		}
	}()
}

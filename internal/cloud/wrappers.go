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
// This file implements QuotaAwareCommand, a decorator that rate limits a
// cor.Command. Triggered runs render video and are expensive; a burst of
// script uploads is queued behind the limiter instead of starting every run
// at once.
package cloud

import (
	"fmt"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"golang.org/x/time/rate"
)

// QuotaAwareCommand wraps a command and allows at most a configured number of
// executions per interval.
type QuotaAwareCommand struct {
	cor.Command
	limiter *rate.Limiter
}

// NewQuotaAwareCommand allows runsPerMinute executions per minute with a
// burst of one. A non-positive runsPerMinute returns the command unwrapped.
//
// Inputs:
//   - wrapped: The command to throttle.
//   - runsPerMinute: The sustained rate.
//
// Outputs:
//   - cor.Command: The throttled command.
func NewQuotaAwareCommand(wrapped cor.Command, runsPerMinute int) cor.Command {
	if runsPerMinute <= 0 {
		return wrapped
	}
	return &QuotaAwareCommand{
		Command: wrapped,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(runsPerMinute)), 1),
	}
}

// Execute waits for a token, then runs the wrapped command. If the context
// ends while waiting, the wait error is recorded and the command is not run.
func (q *QuotaAwareCommand) Execute(context cor.Context) {
	if err := q.limiter.Wait(context.GetContext()); err != nil {
		context.AddError(q.GetName(), fmt.Errorf("rate limit wait: %w", err))
		return
	}
	q.Command.Execute(context)
}

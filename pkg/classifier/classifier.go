// Copyright 2025 Embedos Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package classifier maps the updater's domain-specific exit code, together
// with the persisted retry counter, to a supervisor-level outcome.
//
// The retry policy lives here and nowhere else: transient network loss is
// retried across reboots up to a fixed budget, then escalated to a
// distinct, user-visible outcome so silent retries cannot loop forever.
package classifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/embedos/update-recovery/pkg/constants"
	"github.com/embedos/update-recovery/pkg/outcome"
	"github.com/embedos/update-recovery/pkg/retrystore"
)

// Classifier is the exit code decision table.
type Classifier struct {
	retries *retrystore.Store
	logger  *zap.SugaredLogger
}

// New creates a classifier backed by the given retry counter store.
func New(retries *retrystore.Store, logger *zap.SugaredLogger) *Classifier {
	return &Classifier{
		retries: retries,
		logger:  logger,
	}
}

// Classify maps the child's exit code to an outcome.
//
// The caller is responsible for resetting the retry counter when Success is
// returned, and for overriding the result with outcome.SystemTimeout when
// the child was terminated on the global timeout; a forced termination
// never reaches this table.
func (c *Classifier) Classify(ctx context.Context, exitCode int) outcome.Code {
	switch exitCode {
	case constants.UpdaterExitSuccess:
		return outcome.Success

	case constants.UpdaterExitNoNetwork, constants.UpdaterExitCannotReachSource:
		count := c.retries.Get(ctx)
		if count > constants.PermittedNetworkRetries {
			c.logger.Warnf("Network failure after %d attempts, retry budget of %d exhausted",
				count, constants.PermittedNetworkRetries)

			return outcome.NetworkRetriesExceeded
		}

		c.retries.Increment(ctx)

		return outcome.NetworkUnreachable

	case constants.UpdaterExitHangedIndefinitely:
		return outcome.ProgressTimeout

	default:
		c.logger.Warnf("Unrecognized updater exit code %d", exitCode)

		return outcome.LaunchFailure
	}
}

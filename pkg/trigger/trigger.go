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

// Package trigger decides at start-up whether recovery must run at all, and
// whether an external error display already owns the screen.
package trigger

import (
	"context"

	"go.uber.org/zap"

	"github.com/embedos/update-recovery/pkg/service/display"
	"github.com/embedos/update-recovery/pkg/status"
)

// Evaluator answers the two questions asked before anything is launched.
type Evaluator struct {
	status  *status.Provider
	display display.Service
	logger  *zap.SugaredLogger
}

// NewEvaluator creates a trigger evaluator.
func NewEvaluator(statusProvider *status.Provider, displayService display.Service, logger *zap.SugaredLogger) *Evaluator {
	return &Evaluator{
		status:  statusProvider,
		display: displayService,
		logger:  logger,
	}
}

// IsRecoveryNeeded reports whether the updater's persisted state says an
// installation was interrupted. A missing or unreadable status file means
// no recovery: this path must be side-effect-free so a healthy boot is
// never disturbed.
func (e *Evaluator) IsRecoveryNeeded(ctx context.Context) bool {
	st, err := e.status.Load(ctx)
	if err != nil {
		e.logger.Debugf("No usable updater status, recovery not needed: %s", err)

		return false
	}

	if st.InstallInterrupted() {
		e.logger.Infof("Updater state %q indicates an interrupted installation", st.State)

		return true
	}

	e.logger.Debugf("Updater state %q does not require recovery", st.State)

	return false
}

// IsConflictingErrorActive reports whether an error splash is already being
// displayed by an earlier stage. When it is, that external failure is
// authoritative and no update run may be attempted on top of it.
func (e *Evaluator) IsConflictingErrorActive(ctx context.Context) bool {
	active, err := e.display.AnyErrorSplashActive(ctx)
	if err != nil {
		e.logger.Warnf("Failed to check for active error splash: %s", err)

		return false
	}

	return active
}

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

package display

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/embedos/update-recovery/pkg/constants"
	"github.com/embedos/update-recovery/pkg/outcome"
	"github.com/embedos/update-recovery/pkg/service/filesystem"
)

// startRetries is how often a unit start is retried. Early in boot the
// display manager may not be up yet, so the first attempts can fail.
const startRetries = 5

// SystemdDisplay drives the splash units through systemctl.
type SystemdDisplay struct {
	fsService     filesystem.Service
	logger        *zap.SugaredLogger
	retryInterval time.Duration
}

// NewSystemdDisplay creates a display service using the given filesystem
// service's command execution.
func NewSystemdDisplay(fsService filesystem.Service, logger *zap.SugaredLogger) *SystemdDisplay {
	return &SystemdDisplay{
		fsService:     fsService,
		logger:        logger,
		retryInterval: 2 * time.Second,
	}
}

// SetRetryInterval overrides the constant backoff interval between start
// attempts. Used by tests.
func (d *SystemdDisplay) SetRetryInterval(interval time.Duration) {
	d.retryInterval = interval
}

// ShowProgress starts the "recovery in progress" splash.
func (d *SystemdDisplay) ShowProgress(ctx context.Context) {
	d.startUnit(ctx, constants.ProgressSplashUnit)
}

// HideProgress stops the progress splash.
func (d *SystemdDisplay) HideProgress(ctx context.Context) {
	d.stopUnit(ctx, constants.ProgressSplashUnit)
}

// ShowSuccess starts the success splash.
func (d *SystemdDisplay) ShowSuccess(ctx context.Context) {
	d.startUnit(ctx, constants.SuccessSplashUnit)
}

// ShowError starts the error splash named after the outcome.
func (d *SystemdDisplay) ShowError(ctx context.Context, code outcome.Code) {
	d.startUnit(ctx, ErrorUnitFor(code))
}

// AnyErrorSplashActive lists active units matching the error splash
// pattern and reports whether any exist.
func (d *SystemdDisplay) AnyErrorSplashActive(ctx context.Context) (bool, error) {
	out, err := d.fsService.ExecuteCommand(ctx,
		"systemctl", "list-units", "--state=active", "--plain", "--no-legend",
		constants.ErrorSplashGlob)
	if err != nil {
		return false, err
	}

	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) != "" {
			return true, nil
		}
	}

	return false, nil
}

// ErrorUnitFor returns the splash unit name for a failure outcome.
func ErrorUnitFor(code outcome.Code) string {
	return constants.ErrorSplashPrefix + code.String() + ".service"
}

// startUnit starts a unit with a bounded constant-interval retry.
func (d *SystemdDisplay) startUnit(ctx context.Context, unit string) {
	op := func() error {
		_, err := d.fsService.ExecuteCommand(ctx, "systemctl", "start", unit)

		return err
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(d.retryInterval), startRetries)
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		d.logger.Warnf("Failed to start splash unit %s: %s", unit, err)

		return
	}

	d.logger.Infof("Started splash unit %s", unit)
}

// stopUnit stops a unit, single attempt.
func (d *SystemdDisplay) stopUnit(ctx context.Context, unit string) {
	if _, err := d.fsService.ExecuteCommand(ctx, "systemctl", "stop", unit); err != nil {
		d.logger.Warnf("Failed to stop splash unit %s: %s", unit, err)
	}
}

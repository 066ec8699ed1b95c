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

// Package sentry wraps crash reporting for the recovery supervisor. A device
// stuck in the hold state cannot be debugged interactively, so the last
// error before the hold is the one artifact that must reach the backend.
package sentry

import (
	"os"
	"runtime/debug"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/embedos/update-recovery/pkg/constants"
)

// enabled tracks whether sentry.Init succeeded; reporting degrades to
// log-only when it did not.
var enabled bool

// InitSentry initializes crash reporting with the given app version.
// Reporting stays disabled for development builds and when no DSN is
// configured, so local runs and test rigs never pollute the project.
func InitSentry(appVersion string) {
	if appVersion == "" || appVersion == constants.DefaultAppVersion {
		zap.S().Debug("Crash reporting disabled for local development build")

		return
	}

	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		zap.S().Debug("Crash reporting disabled, SENTRY_DSN not set")

		return
	}

	environment := constants.DefaultDevelopmentEnvironment

	version, err := semver.NewVersion(appVersion)
	if err != nil {
		zap.S().Errorf("Failed to parse app version, using default environment (development): %s", err)
	} else if version.Prerelease() == "" {
		environment = constants.DefaultProductionEnvironment
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:           dsn,
		Environment:   environment,
		Release:       "update-recovery@" + appVersion,
		EnableTracing: false,
	})
	if err != nil {
		zap.S().Errorf("Failed to initialize crash reporting: %s", err)

		return
	}

	enabled = true
}

// Flush drains pending events. Called before reboot and before entering the
// hold state; after remounting read-only the network may be the only way out.
func Flush(timeout time.Duration) {
	if enabled {
		sentry.Flush(timeout)
	}
}

// capture sends one event with the current stack attached.
func capture(level sentry.Level, err error) {
	if !enabled {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		scope.SetExtra("stacktrace", string(debug.Stack()))
		sentry.CaptureException(err)
	})
}

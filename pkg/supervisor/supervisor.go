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

// Package supervisor orchestrates one recovery run: deciding whether
// recovery is needed, relaunching the updater under supervision,
// classifying how it ended and carrying out the terminal action. A run
// always ends in exactly one of reboot, indefinite hold or a silent
// stand-down.
package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/embedos/update-recovery/pkg/classifier"
	"github.com/embedos/update-recovery/pkg/config"
	"github.com/embedos/update-recovery/pkg/logger"
	"github.com/embedos/update-recovery/pkg/metrics"
	"github.com/embedos/update-recovery/pkg/outcome"
	"github.com/embedos/update-recovery/pkg/power"
	"github.com/embedos/update-recovery/pkg/retrystore"
	"github.com/embedos/update-recovery/pkg/sentry"
	"github.com/embedos/update-recovery/pkg/service/display"
	"github.com/embedos/update-recovery/pkg/service/runner"
	"github.com/embedos/update-recovery/pkg/statusapi"
	"github.com/embedos/update-recovery/pkg/tracking"
	"github.com/embedos/update-recovery/pkg/trigger"
)

// RecoveryDecision is the final verdict of a run.
type RecoveryDecision struct {
	// Code is the terminal outcome.
	Code outcome.Code

	// Elapsed is the supervised child's wall-clock runtime. Zero when no
	// child was launched.
	Elapsed time.Duration
}

// Dependencies are the collaborators a Supervisor drives. StatusAPI may
// be nil; everything else is required.
type Dependencies struct {
	Trigger    *trigger.Evaluator
	Runner     runner.Service
	Display    display.Service
	Power      power.Sequencer
	Retries    *retrystore.Store
	Tracking   *tracking.Store
	Classifier *classifier.Classifier
	StatusAPI  *statusapi.Server
}

// Supervisor runs the recovery decision flow.
type Supervisor struct {
	cfg    config.Config
	deps   Dependencies
	logger *zap.SugaredLogger
}

// New creates a supervisor.
func New(cfg config.Config, deps Dependencies) *Supervisor {
	return &Supervisor{
		cfg:    cfg,
		deps:   deps,
		logger: logger.For(logger.ComponentSupervisor),
	}
}

// Run executes one full recovery cycle and returns its decision. In
// production the reboot and hold terminal actions do not return; the
// return value exists for the stand-down path and for tests, whose mock
// terminal actions do return.
//
// Run never panics out: any panic below it is reported and converted
// into the generic failure path, so the device always ends up holding on
// a visible error rather than dying undisplayed.
func (s *Supervisor) Run(ctx context.Context) (decision RecoveryDecision) {
	machine := newMachine(s.logger)

	defer func() {
		if r := recover(); r != nil {
			sentry.ReportIssuef(sentry.IssueTypeFatal, s.logger, "panic during recovery run: %v", r)
			metrics.IncErrorCount(logger.ComponentSupervisor)
			decision = s.failTerminal(ctx, outcome.LaunchFailure, 0)
		}
	}()

	transition(ctx, machine, eventEvaluate, s.logger)

	if !s.deps.Trigger.IsRecoveryNeeded(ctx) {
		// A healthy boot must be left completely undisturbed: no splash,
		// no state writes, no servers.
		transition(ctx, machine, eventStandDown, s.logger)
		s.logger.Info("No interrupted installation, standing down")

		return RecoveryDecision{Code: outcome.Success}
	}

	if s.deps.Trigger.IsConflictingErrorActive(ctx) {
		// An earlier stage already owns the screen with its own error.
		// Launching an update on top of it could mask that failure, so
		// the device is parked behind the existing splash untouched.
		transition(ctx, machine, eventFail, s.logger)
		s.logger.Warn("An error splash is already active, not attempting recovery")
		transition(ctx, machine, eventHold, s.logger)

		return s.holdOnFailure(ctx, outcome.LaunchFailure, 0, false)
	}

	metricsServer := s.startAncillaries()

	s.deps.Display.ShowProgress(ctx)

	retryCount := s.deps.Retries.Get(ctx)
	metrics.SetRetryCount(retryCount)
	s.publishStatus(stateLaunching, "", retryCount, 0)

	if id, ok := s.deps.Tracking.Current(ctx); ok {
		s.logger.Infof("Resuming update attempt %s (retry count %d)", id, retryCount)
	}

	transition(ctx, machine, eventLaunch, s.logger)

	process, err := s.deps.Runner.Launch(ctx)
	if err != nil {
		sentry.ReportIssue(fmt.Errorf("failed to launch updater: %w", err), sentry.IssueTypeError, s.logger)
		transition(ctx, machine, eventFail, s.logger)
		transition(ctx, machine, eventHold, s.logger)
		s.publishStatus(stateFailed, outcome.LaunchFailure.String(), retryCount, 0)

		return s.failTerminal(ctx, outcome.LaunchFailure, 0)
	}

	transition(ctx, machine, eventMonitor, s.logger)
	s.publishStatus(stateMonitoring, "", retryCount, process.Pid)

	result := s.deps.Runner.Monitor(ctx, process)

	var code outcome.Code
	if result.TimedOut {
		// A forced termination never reaches the exit code table.
		code = outcome.SystemTimeout
	} else {
		code = s.deps.Classifier.Classify(ctx, result.ExitCode)
	}

	s.logger.Infof("Updater finished after %s: %s", result.Elapsed.Round(time.Second), code)

	if code == outcome.Success {
		transition(ctx, machine, eventSucceed, s.logger)
		s.publishStatus(stateSucceeded, code.String(), 0, 0)
		s.stopAncillaries(ctx, metricsServer)
		transition(ctx, machine, eventReboot, s.logger)

		return s.rebootOnSuccess(ctx, result.Elapsed)
	}

	transition(ctx, machine, eventFail, s.logger)
	transition(ctx, machine, eventHold, s.logger)
	// The servers stay up through the hold: the device is parked but a
	// technician can still query what happened.
	s.publishStatus(stateFailed, code.String(), s.deps.Retries.Get(ctx), 0)

	return s.failTerminal(ctx, code, result.Elapsed)
}

// rebootOnSuccess performs the success terminal action: show the result,
// reset the retry budget and restart the device. Does not return in
// production.
func (s *Supervisor) rebootOnSuccess(ctx context.Context, elapsed time.Duration) RecoveryDecision {
	metrics.RecordOutcome(outcome.Success.String())

	s.deps.Display.HideProgress(ctx)
	s.deps.Display.ShowSuccess(ctx)

	// A clean install ends the failure streak. The tracking identity is
	// left alone: the updater itself retires it once the post-reboot
	// steps complete.
	s.deps.Retries.Reset(ctx)

	sentry.Flush(2 * time.Second)

	if err := s.deps.Power.Reboot(ctx, s.cfg.RebootDelay); err != nil {
		s.logger.Errorf("Reboot failed: %s", err)
	}

	return RecoveryDecision{Code: outcome.Success, Elapsed: elapsed}
}

// failTerminal performs the failure terminal action: show the error and
// park the device. Does not return in production.
func (s *Supervisor) failTerminal(ctx context.Context, code outcome.Code, elapsed time.Duration) RecoveryDecision {
	s.deps.Display.HideProgress(ctx)
	s.deps.Display.ShowError(ctx, code)

	return s.holdOnFailure(ctx, code, elapsed, true)
}

// holdOnFailure finishes every failure path: the retried update is
// abandoned, filesystems are made safe and the device holds until a
// human intervenes. When clearTracking is false the terminal error
// belongs to an earlier stage and this run's state is left untouched.
func (s *Supervisor) holdOnFailure(ctx context.Context, code outcome.Code, elapsed time.Duration, clearTracking bool) RecoveryDecision {
	metrics.RecordOutcome(code.String())

	if clearTracking {
		s.deps.Tracking.Clear(ctx)
	}

	sentry.ReportIssuef(sentry.IssueTypeError, s.logger, "recovery failed: %s", code)
	sentry.Flush(2 * time.Second)

	s.deps.Power.PrepareForHardShutdown(ctx)
	s.deps.Power.HoldIndefinitely()

	return RecoveryDecision{Code: code, Elapsed: elapsed}
}

// startAncillaries brings up the metrics endpoint and the status API for
// the duration of the supervised attempt. Either may be disabled by an
// empty address.
func (s *Supervisor) startAncillaries() *http.Server {
	var metricsServer *http.Server
	if s.cfg.MetricsAddr != "" {
		metricsServer = metrics.SetupMetricsEndpoint(s.cfg.MetricsAddr, s.logger)
	}

	if s.deps.StatusAPI != nil {
		s.deps.StatusAPI.Start()
	}

	return metricsServer
}

// stopAncillaries shuts both servers down before the terminal action.
func (s *Supervisor) stopAncillaries(ctx context.Context, metricsServer *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warnf("Metrics server shutdown failed: %s", err)
		}
	}

	if s.deps.StatusAPI != nil {
		s.deps.StatusAPI.Shutdown(shutdownCtx)
	}
}

// publishStatus forwards the run state to the status API when one is
// configured.
func (s *Supervisor) publishStatus(state string, outcomeName string, retryCount int, childPid int) {
	if s.deps.StatusAPI == nil {
		return
	}

	s.deps.StatusAPI.Update(state, outcomeName, retryCount, childPid)
}

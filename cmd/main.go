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

package main

import (
	"context"
	"os"

	"github.com/embedos/update-recovery/pkg/classifier"
	"github.com/embedos/update-recovery/pkg/config"
	"github.com/embedos/update-recovery/pkg/constants"
	"github.com/embedos/update-recovery/pkg/env"
	"github.com/embedos/update-recovery/pkg/logger"
	"github.com/embedos/update-recovery/pkg/power"
	"github.com/embedos/update-recovery/pkg/retrystore"
	"github.com/embedos/update-recovery/pkg/sentry"
	"github.com/embedos/update-recovery/pkg/service/display"
	"github.com/embedos/update-recovery/pkg/service/filesystem"
	"github.com/embedos/update-recovery/pkg/service/runner"
	"github.com/embedos/update-recovery/pkg/status"
	"github.com/embedos/update-recovery/pkg/statusapi"
	"github.com/embedos/update-recovery/pkg/supervisor"
	"github.com/embedos/update-recovery/pkg/tracking"
	"github.com/embedos/update-recovery/pkg/trigger"
	"github.com/embedos/update-recovery/pkg/version"
)

func main() {
	// Initialize the global logger first thing
	logger.Initialize()

	// Initialize crash reporting
	sentry.InitSentry(version.GetAppVersion())

	log := logger.For(logger.ComponentSupervisor)
	log.Infof("Starting update-recovery %s...", version.GetAppVersion())

	ctx := context.Background()

	fsService := filesystem.NewDefaultService()

	configPath, err := env.GetAsString("CONFIG_PATH", false, constants.DefaultConfigPath)
	if err != nil {
		log.Warnf("Invalid CONFIG_PATH, using default: %s", err)
		configPath = constants.DefaultConfigPath
	}

	cfg, err := config.Load(ctx, fsService, configPath, logger.For(logger.ComponentConfig))
	if err != nil {
		// Defaults are always usable; a recovery boot must not die on a
		// broken config.
		sentry.ReportIssue(err, sentry.IssueTypeWarning, log)
	}

	displayService := display.NewSystemdDisplay(fsService, logger.For(logger.ComponentDisplay))
	statusProvider := status.NewProvider(cfg.StatusFilePath, fsService)
	retries := retrystore.NewStore(cfg.RetryCounterPath, fsService, logger.For(logger.ComponentRetryStore))

	sup := supervisor.New(cfg, supervisor.Dependencies{
		Trigger: trigger.NewEvaluator(statusProvider, displayService, logger.For(logger.ComponentTrigger)),
		Runner: runner.NewUpdaterRunner(runner.Config{
			UpdaterBinary:          cfg.UpdaterBinary,
			UpdaterArgs:            cfg.UpdaterArgs,
			ChildLogDir:            cfg.ChildLogDir,
			PollInterval:           cfg.PollInterval,
			SystemTimeout:          cfg.SystemTimeout,
			TerminateGracePeriod:   cfg.TerminateGracePeriod,
			ResourceSampleInterval: cfg.ResourceSampleInterval,
		}, logger.For(logger.ComponentRunner)),
		Display:    displayService,
		Power:      power.NewSystemSequencer(fsService, cfg.SysrqTriggerPath, cfg.HoldInterval, logger.For(logger.ComponentPower)),
		Retries:    retries,
		Tracking:   tracking.NewStore(cfg.TrackingIDPath, fsService, logger.For(logger.ComponentTrackingStore)),
		Classifier: classifier.New(retries, logger.For(logger.ComponentClassifier)),
		StatusAPI:  statusapi.NewServer(cfg.StatusAPIAddr, logger.For(logger.ComponentStatusAPI)),
	})

	decision := sup.Run(ctx)

	// Reaching this point means no terminal action blocked: either a
	// healthy boot stood down, or a terminal action failed and was
	// reported. The exit code mirrors the outcome either way.
	log.Infof("Recovery run finished: %s", decision.Code)
	_ = logger.Sync()
	os.Exit(decision.Code.ExitCode())
}

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

// Package config loads the supervisor configuration from an optional YAML
// file with environment variable overrides. Every filesystem location and
// time budget flows through here; nothing in the decision core hardcodes a
// path.
package config

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/embedos/update-recovery/pkg/constants"
	"github.com/embedos/update-recovery/pkg/env"
	"github.com/embedos/update-recovery/pkg/service/filesystem"
)

// Config holds everything the recovery supervisor needs to run.
type Config struct {
	// UpdaterBinary is the supervised update command. It is relaunched with
	// UpdaterArgs, which preserve the cross-boot tracking identity.
	UpdaterBinary string   `yaml:"updaterBinary"`
	UpdaterArgs   []string `yaml:"updaterArgs"`

	// State file locations.
	RetryCounterPath string `yaml:"retryCounterPath"`
	StatusFilePath   string `yaml:"statusFilePath"`
	TrackingIDPath   string `yaml:"trackingIdPath"`
	ChildLogDir      string `yaml:"childLogDir"`
	SysrqTriggerPath string `yaml:"sysrqTriggerPath"`

	// Time budgets.
	PollInterval           time.Duration `yaml:"pollInterval"`
	SystemTimeout          time.Duration `yaml:"systemTimeout"`
	RebootDelay            time.Duration `yaml:"rebootDelay"`
	HoldInterval           time.Duration `yaml:"holdInterval"`
	TerminateGracePeriod   time.Duration `yaml:"terminateGracePeriod"`
	ResourceSampleInterval time.Duration `yaml:"resourceSampleInterval"`

	// Ancillary servers, only up while the child is being monitored.
	MetricsAddr   string `yaml:"metricsAddr"`
	StatusAPIAddr string `yaml:"statusApiAddr"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		UpdaterBinary:          constants.DefaultUpdaterBinary,
		UpdaterArgs:            constants.UpdaterInstallArgs,
		RetryCounterPath:       constants.DefaultRetryCounterPath,
		StatusFilePath:         constants.DefaultStatusFilePath,
		TrackingIDPath:         constants.DefaultTrackingIDPath,
		ChildLogDir:            constants.DefaultChildLogDir,
		SysrqTriggerPath:       constants.SysrqTriggerPath,
		PollInterval:           constants.DefaultPollInterval,
		SystemTimeout:          constants.DefaultSystemTimeout,
		RebootDelay:            constants.DefaultRebootDelay,
		HoldInterval:           constants.DefaultHoldInterval,
		TerminateGracePeriod:   constants.DefaultTerminateGracePeriod,
		ResourceSampleInterval: constants.DefaultResourceSampleInterval,
		MetricsAddr:            constants.DefaultMetricsAddr,
		StatusAPIAddr:          constants.DefaultStatusAPIAddr,
	}
}

// Load reads the config file at path (if present), then applies environment
// variable overrides.
//
// Order of precedence (highest to lowest):
//  1. Environment variables (UPDATER_BINARY, SYSTEM_TIMEOUT, ...)
//  2. Config file values
//  3. Built-in defaults
//
// A missing config file is not an error; a recovery boot must work on a
// device whose data partition lost the file. A malformed file is reported
// and the defaults are used, for the same reason.
func Load(ctx context.Context, fsService filesystem.Service, path string, log *zap.SugaredLogger) (Config, error) {
	cfg := DefaultConfig()

	exists, err := fsService.PathExists(ctx, path)
	if err != nil {
		return cfg, fmt.Errorf("failed to check config file: %w", err)
	}

	if exists {
		data, err := fsService.ReadFile(ctx, path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Warnf("Malformed config file %s, falling back to defaults: %s", path, err)
			cfg = DefaultConfig()
		}
	} else {
		log.Debugf("No config file at %s, using defaults", path)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// applyEnvOverrides replaces individual fields from the environment. Only
// the knobs that operators actually turn on a live device are exposed.
func applyEnvOverrides(cfg *Config) error {
	var err error

	if cfg.UpdaterBinary, err = env.GetAsString("UPDATER_BINARY", false, cfg.UpdaterBinary); err != nil {
		return err
	}

	if cfg.RetryCounterPath, err = env.GetAsString("RETRY_COUNTER_PATH", false, cfg.RetryCounterPath); err != nil {
		return err
	}

	if cfg.StatusFilePath, err = env.GetAsString("UPDATER_STATUS_PATH", false, cfg.StatusFilePath); err != nil {
		return err
	}

	if cfg.PollInterval, err = env.GetAsDuration("POLL_INTERVAL", false, cfg.PollInterval); err != nil {
		return err
	}

	if cfg.SystemTimeout, err = env.GetAsDuration("SYSTEM_TIMEOUT", false, cfg.SystemTimeout); err != nil {
		return err
	}

	if cfg.RebootDelay, err = env.GetAsDuration("REBOOT_DELAY", false, cfg.RebootDelay); err != nil {
		return err
	}

	if cfg.MetricsAddr, err = env.GetAsString("METRICS_ADDR", false, cfg.MetricsAddr); err != nil {
		return err
	}

	if cfg.StatusAPIAddr, err = env.GetAsString("STATUS_API_ADDR", false, cfg.StatusAPIAddr); err != nil {
		return err
	}

	return nil
}

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

// Package constants holds the fixed time budgets, filesystem locations and
// exit code contracts shared across the recovery supervisor.
package constants

import (
	"os"
	"time"
)

const (
	// DefaultAppVersion is the version reported by development builds.
	// Release builds override it via ldflags.
	DefaultAppVersion = "0.0.0-dev"

	// DefaultDevelopmentEnvironment is the crash reporting environment for
	// prerelease builds.
	DefaultDevelopmentEnvironment = "development"
	// DefaultProductionEnvironment is the crash reporting environment for
	// release builds.
	DefaultProductionEnvironment = "production"
)

// Updater exit codes. These are the domain-specific codes the supervised
// updater process reports through its exit status, the sole channel of
// outcome information between the two processes.
const (
	UpdaterExitSuccess            = 0
	UpdaterExitNoNetwork          = 40
	UpdaterExitCannotReachSource  = 41
	UpdaterExitHangedIndefinitely = 50
)

// PermittedNetworkRetries is the number of consecutive network-failure
// recovery attempts allowed across reboots before the failure is escalated
// to a distinct, user-visible outcome.
const PermittedNetworkRetries = 3

// Time budgets of the supervision loop and the terminal actions.
const (
	// DefaultPollInterval is how often the monitor loop checks whether the
	// child has exited. One second is fine enough to react promptly and
	// coarse enough to not busy-wait on a constrained device.
	DefaultPollInterval = time.Second

	// DefaultSystemTimeout is the global wall-clock budget for one recovery
	// attempt. When it elapses the child's whole process group is terminated
	// and the outcome is forced to a system timeout.
	DefaultSystemTimeout = 3 * time.Hour

	// DefaultRebootDelay gives the success splash time to be seen before the
	// device reboots.
	DefaultRebootDelay = 10 * time.Second

	// DefaultHoldInterval is the sleep period of the indefinite hold loop.
	DefaultHoldInterval = time.Hour

	// DefaultTerminateGracePeriod is how long the process group gets between
	// SIGTERM and SIGKILL.
	DefaultTerminateGracePeriod = 10 * time.Second

	// DefaultResourceSampleInterval is the cadence at which the monitor loop
	// samples the child's memory and CPU usage for logging and metrics.
	DefaultResourceSampleInterval = time.Minute
)

// Filesystem locations.
const (
	DefaultConfigPath       = "/etc/update-recovery/config.yaml"
	DefaultRetryCounterPath = "/var/cache/update-recovery/retries"
	DefaultStatusFilePath   = "/var/cache/os-updater/status.yaml"
	DefaultTrackingIDPath   = "/var/cache/os-updater/tracking-id"
	DefaultUpdaterBinary    = "/usr/bin/os-updater"
	DefaultChildLogDir      = "/var/log/update-recovery"

	// SysrqTriggerPath accepts single-letter kernel requests. The shutdown
	// sequencer writes "s" (emergency sync) followed by "u" (remount all
	// filesystems read-only) before the device is parked.
	SysrqTriggerPath = "/proc/sysrq-trigger"
)

// UpdaterInstallArgs are the arguments the updater is relaunched with. The
// keep-uuid flag preserves the cross-boot tracking identity so the retried
// installation is correlated with the interrupted one.
var UpdaterInstallArgs = []string{"install", "--keep-uuid"}

// Splash service naming. Each outcome maps to starting or stopping a
// uniquely named presentation unit; the rendering itself is external.
const (
	ProgressSplashUnit = "updater-recovery-progress.service"
	SuccessSplashUnit  = "updater-recovery-success.service"
	ErrorSplashPrefix  = "updater-error-"
	ErrorSplashGlob    = "updater-error-*.service"
)

// Network endpoints of the ancillary servers run while monitoring.
const (
	DefaultMetricsAddr   = "127.0.0.1:9180"
	DefaultStatusAPIAddr = "127.0.0.1:9181"
)

const (
	// DataFilePermission is used for the retry counter and other small state
	// files owned by the supervisor.
	DataFilePermission os.FileMode = 0o644
	// SysrqFilePermission is the mode used when poking the sysrq trigger.
	SysrqFilePermission os.FileMode = 0o200
)

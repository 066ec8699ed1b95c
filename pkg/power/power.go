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

// Package power ends a recovery run: rebooting the device, or parking it
// in an indefinite hold with the filesystems made safe against a user
// pulling the plug.
package power

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/embedos/update-recovery/pkg/constants"
	"github.com/embedos/update-recovery/pkg/service/filesystem"
)

// Sequencer performs the terminal actions of a recovery run.
type Sequencer interface {
	// PrepareForHardShutdown syncs and remounts filesystems read-only so
	// a power cut while holding cannot corrupt storage.
	PrepareForHardShutdown(ctx context.Context)

	// Reboot restarts the device after the given delay. It does not
	// return on success.
	Reboot(ctx context.Context, delay time.Duration) error

	// HoldIndefinitely parks the process forever. It never returns.
	HoldIndefinitely()
}

// SystemSequencer is the production Sequencer, driving the kernel through
// sysrq and the reboot syscall.
type SystemSequencer struct {
	fsService    filesystem.Service
	logger       *zap.SugaredLogger
	sysrqPath    string
	holdInterval time.Duration
}

// NewSystemSequencer creates a sequencer using the given filesystem
// service for sysrq writes. Zero values select the built-in sysrq path
// and hold interval.
func NewSystemSequencer(fsService filesystem.Service, sysrqPath string, holdInterval time.Duration, logger *zap.SugaredLogger) *SystemSequencer {
	if sysrqPath == "" {
		sysrqPath = constants.SysrqTriggerPath
	}

	if holdInterval <= 0 {
		holdInterval = constants.DefaultHoldInterval
	}

	return &SystemSequencer{
		fsService:    fsService,
		logger:       logger,
		sysrqPath:    sysrqPath,
		holdInterval: holdInterval,
	}
}

// PrepareForHardShutdown asks the kernel to sync all filesystems and then
// remount them read-only. Both writes are best-effort: on a device where
// sysrq is compiled out the hold still happens, just without the
// guarantee.
func (s *SystemSequencer) PrepareForHardShutdown(ctx context.Context) {
	// "s" = emergency sync, "u" = emergency remount read-only.
	for _, command := range []string{"s", "u"} {
		err := s.fsService.WriteFile(ctx, s.sysrqPath,
			[]byte(command), constants.SysrqFilePermission)
		if err != nil {
			s.logger.Warnf("Failed to write %q to %s: %s", command, s.sysrqPath, err)
		}
	}

	s.logger.Info("Filesystems synced and remounted read-only")
}

// Reboot sleeps for the given delay, then restarts the device. The delay
// gives the success splash time on screen and lets log sinks flush.
func (s *SystemSequencer) Reboot(ctx context.Context, delay time.Duration) error {
	s.logger.Infof("Rebooting in %s", delay)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
	}

	unix.Sync()

	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART); err != nil {
		s.logger.Errorf("Reboot syscall failed: %s, falling back to the reboot binary", err)

		if _, execErr := s.fsService.ExecuteCommand(ctx, "reboot"); execErr != nil {
			return execErr
		}
	}

	// The kernel is going down; block until it takes us with it.
	select {}
}

// HoldIndefinitely parks the process. The device stays on the error
// splash until a human powers it off.
func (s *SystemSequencer) HoldIndefinitely() {
	s.logger.Info("Holding indefinitely, waiting for manual power-off")

	for {
		time.Sleep(s.holdInterval)
		s.logger.Debug("Still holding")
	}
}

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

package supervisor_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/embedos/update-recovery/pkg/classifier"
	"github.com/embedos/update-recovery/pkg/config"
	"github.com/embedos/update-recovery/pkg/constants"
	"github.com/embedos/update-recovery/pkg/outcome"
	"github.com/embedos/update-recovery/pkg/power"
	"github.com/embedos/update-recovery/pkg/retrystore"
	"github.com/embedos/update-recovery/pkg/service/display"
	"github.com/embedos/update-recovery/pkg/service/filesystem"
	"github.com/embedos/update-recovery/pkg/service/runner"
	"github.com/embedos/update-recovery/pkg/status"
	"github.com/embedos/update-recovery/pkg/supervisor"
	"github.com/embedos/update-recovery/pkg/tracking"
	"github.com/embedos/update-recovery/pkg/trigger"
)

var _ = Describe("Supervisor", func() {
	const (
		statusPath   = "/var/cache/os-updater/status.yaml"
		counterPath  = "/var/cache/update-recovery/retries"
		trackingPath = "/var/cache/os-updater/tracking-id"
		trackingID   = "5a9e3e1e-9c6b-4a7b-9a43-3e1f0b7a9f21"
	)

	var (
		ctx     context.Context
		fs      *filesystem.MockFileSystem
		disp    *display.MockDisplay
		run     *runner.MockRunner
		seq     *power.MockSequencer
		retries *retrystore.Store
		sup     *supervisor.Supervisor
	)

	BeforeEach(func() {
		ctx = context.Background()
		fs = filesystem.NewMockFileSystem()
		disp = display.NewMockDisplay()
		run = runner.NewMockRunner()
		seq = power.NewMockSequencer()

		log := zap.NewNop().Sugar()
		retries = retrystore.NewStore(counterPath, fs, log)

		cfg := config.DefaultConfig()
		// The ancillary servers stay off in tests.
		cfg.MetricsAddr = ""
		cfg.StatusAPIAddr = ""

		sup = supervisor.New(cfg, supervisor.Dependencies{
			Trigger:    trigger.NewEvaluator(status.NewProvider(statusPath, fs), disp, log),
			Runner:     run,
			Display:    disp,
			Power:      seq,
			Retries:    retries,
			Tracking:   tracking.NewStore(trackingPath, fs, log),
			Classifier: classifier.New(retries, log),
		})
	})

	interruptedInstall := func() {
		fs.WithFile(statusPath, []byte("state: installing-updates\n"))
		fs.WithFile(trackingPath, []byte(trackingID))
	}

	Context("when no installation was interrupted", func() {
		It("stands down without side effects", func() {
			fs.WithFile(statusPath, []byte("state: no-updates-available\n"))

			decision := sup.Run(ctx)

			Expect(decision.Code).To(Equal(outcome.Success))
			Expect(run.Launches).To(BeZero())
			Expect(disp.ProgressShown).To(BeZero())
			Expect(disp.SuccessShown).To(BeZero())
			Expect(disp.ErrorsShown).To(BeEmpty())
			Expect(seq.Rebooted).To(BeZero())
			Expect(seq.Held).To(BeZero())
		})

		It("stands down when the status file is absent", func() {
			decision := sup.Run(ctx)

			Expect(decision.Code).To(Equal(outcome.Success))
			Expect(run.Launches).To(BeZero())
		})
	})

	Context("when an earlier error splash is already active", func() {
		It("parks the device without launching or repainting", func() {
			interruptedInstall()
			disp.ErrorSplashActive = true

			decision := sup.Run(ctx)

			Expect(decision.Code).To(Equal(outcome.LaunchFailure))
			Expect(run.Launches).To(BeZero())
			Expect(disp.ErrorsShown).To(BeEmpty())
			Expect(seq.Prepared).To(Equal(1))
			Expect(seq.Held).To(Equal(1))
			Expect(seq.Rebooted).To(BeZero())

			// The foreign failure owns this boot; the update's own state
			// is preserved for the next attempt.
			_, ok := fs.FileContent(trackingPath)
			Expect(ok).To(BeTrue())
		})
	})

	Context("when the updater cannot be launched", func() {
		It("shows the launch failure and parks the device", func() {
			interruptedInstall()
			run.LaunchFunc = func(ctx context.Context) (*runner.SupervisedProcess, error) {
				return nil, errors.New("binary missing")
			}

			decision := sup.Run(ctx)

			Expect(decision.Code).To(Equal(outcome.LaunchFailure))
			Expect(disp.ProgressShown).To(Equal(1))
			Expect(disp.ErrorsShown).To(Equal([]outcome.Code{outcome.LaunchFailure}))
			Expect(seq.Prepared).To(Equal(1))
			Expect(seq.Held).To(Equal(1))

			_, ok := fs.FileContent(trackingPath)
			Expect(ok).To(BeFalse())
		})
	})

	Context("when the retried installation succeeds", func() {
		It("shows the result and reboots", func() {
			interruptedInstall()
			fs.WithFile(counterPath, []byte("2"))

			decision := sup.Run(ctx)

			Expect(decision.Code).To(Equal(outcome.Success))
			Expect(disp.ProgressShown).To(Equal(1))
			Expect(disp.ProgressHidden).To(Equal(1))
			Expect(disp.SuccessShown).To(Equal(1))
			Expect(disp.ErrorsShown).To(BeEmpty())

			Expect(seq.Rebooted).To(Equal(1))
			Expect(seq.RebootDelay).To(Equal(constants.DefaultRebootDelay))
			Expect(seq.Held).To(BeZero())
			Expect(seq.Prepared).To(BeZero())

			// The failure streak ends, the tracking identity survives.
			Expect(retries.Get(ctx)).To(BeZero())
			_, ok := fs.FileContent(trackingPath)
			Expect(ok).To(BeTrue())
		})
	})

	Context("when the updater exits with a network failure", func() {
		BeforeEach(func() {
			interruptedInstall()
			run.MonitorFunc = func(ctx context.Context, p *runner.SupervisedProcess) runner.MonitorResult {
				return runner.MonitorResult{ExitCode: constants.UpdaterExitNoNetwork, Elapsed: time.Minute}
			}
		})

		It("counts the attempt and parks on the network error", func() {
			decision := sup.Run(ctx)

			Expect(decision.Code).To(Equal(outcome.NetworkUnreachable))
			Expect(retries.Get(ctx)).To(Equal(1))
			Expect(disp.ErrorsShown).To(Equal([]outcome.Code{outcome.NetworkUnreachable}))
			Expect(disp.SuccessShown).To(BeZero())
			Expect(seq.Prepared).To(Equal(1))
			Expect(seq.Held).To(Equal(1))
			Expect(seq.Rebooted).To(BeZero())

			_, ok := fs.FileContent(trackingPath)
			Expect(ok).To(BeFalse())
		})

		It("escalates once the retry budget is exhausted", func() {
			fs.WithFile(counterPath, []byte("4"))

			decision := sup.Run(ctx)

			Expect(decision.Code).To(Equal(outcome.NetworkRetriesExceeded))
			Expect(disp.ErrorsShown).To(Equal([]outcome.Code{outcome.NetworkRetriesExceeded}))
			Expect(retries.Get(ctx)).To(Equal(4))
		})
	})

	Context("when the updater reports its own stall", func() {
		It("parks on the progress timeout", func() {
			interruptedInstall()
			run.MonitorFunc = func(ctx context.Context, p *runner.SupervisedProcess) runner.MonitorResult {
				return runner.MonitorResult{ExitCode: constants.UpdaterExitHangedIndefinitely}
			}

			decision := sup.Run(ctx)

			Expect(decision.Code).To(Equal(outcome.ProgressTimeout))
			Expect(disp.ErrorsShown).To(Equal([]outcome.Code{outcome.ProgressTimeout}))
			Expect(seq.Held).To(Equal(1))
		})
	})

	Context("when the wall-clock budget expires", func() {
		It("overrides any exit code with the system timeout", func() {
			interruptedInstall()
			run.MonitorFunc = func(ctx context.Context, p *runner.SupervisedProcess) runner.MonitorResult {
				return runner.MonitorResult{ExitCode: constants.UpdaterExitSuccess, TimedOut: true, Elapsed: 3 * time.Hour}
			}

			decision := sup.Run(ctx)

			Expect(decision.Code).To(Equal(outcome.SystemTimeout))
			Expect(decision.Elapsed).To(Equal(3 * time.Hour))
			Expect(disp.ErrorsShown).To(Equal([]outcome.Code{outcome.SystemTimeout}))
			Expect(disp.SuccessShown).To(BeZero())
			Expect(seq.Held).To(Equal(1))
		})
	})

	Context("when a collaborator panics", func() {
		It("converts the panic into a displayed failure", func() {
			interruptedInstall()
			run.MonitorFunc = func(ctx context.Context, p *runner.SupervisedProcess) runner.MonitorResult {
				panic("monitor bug")
			}

			var decision supervisor.RecoveryDecision
			Expect(func() { decision = sup.Run(ctx) }).NotTo(Panic())

			Expect(decision.Code).To(Equal(outcome.LaunchFailure))
			Expect(disp.ErrorsShown).To(Equal([]outcome.Code{outcome.LaunchFailure}))
			Expect(seq.Prepared).To(Equal(1))
			Expect(seq.Held).To(Equal(1))
		})
	})

	Context("when the updater exits with an unknown code", func() {
		It("parks on the generic failure", func() {
			interruptedInstall()
			run.MonitorFunc = func(ctx context.Context, p *runner.SupervisedProcess) runner.MonitorResult {
				return runner.MonitorResult{ExitCode: 23}
			}

			decision := sup.Run(ctx)

			Expect(decision.Code).To(Equal(outcome.LaunchFailure))
			Expect(disp.ErrorsShown).To(Equal([]outcome.Code{outcome.LaunchFailure}))
		})
	})
})

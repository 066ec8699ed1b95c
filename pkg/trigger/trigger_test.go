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

package trigger_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/embedos/update-recovery/pkg/service/display"
	"github.com/embedos/update-recovery/pkg/service/filesystem"
	"github.com/embedos/update-recovery/pkg/status"
	"github.com/embedos/update-recovery/pkg/trigger"
)

var _ = Describe("Evaluator", func() {
	const statusPath = "/var/cache/os-updater/status.yaml"

	var (
		ctx  context.Context
		fs   *filesystem.MockFileSystem
		disp *display.MockDisplay
		eval *trigger.Evaluator
	)

	BeforeEach(func() {
		ctx = context.Background()
		fs = filesystem.NewMockFileSystem()
		disp = display.NewMockDisplay()
		eval = trigger.NewEvaluator(status.NewProvider(statusPath, fs), disp, zap.NewNop().Sugar())
	})

	Describe("IsRecoveryNeeded", func() {
		It("is needed when an installation was interrupted", func() {
			fs.WithFile(statusPath, []byte("state: installing-updates\n"))
			Expect(eval.IsRecoveryNeeded(ctx)).To(BeTrue())
		})

		It("is not needed for any other persisted state", func() {
			fs.WithFile(statusPath, []byte("state: updates-downloaded\n"))
			Expect(eval.IsRecoveryNeeded(ctx)).To(BeFalse())
		})

		It("is not needed when the status file is absent", func() {
			Expect(eval.IsRecoveryNeeded(ctx)).To(BeFalse())
		})

		It("is not needed when the status file is unreadable", func() {
			fs.ReadFileFunc = func(ctx context.Context, path string) ([]byte, error) {
				return nil, errors.New("io error")
			}
			Expect(eval.IsRecoveryNeeded(ctx)).To(BeFalse())
		})

		It("is not needed when the status file is malformed", func() {
			fs.WithFile(statusPath, []byte("state: [unclosed"))
			Expect(eval.IsRecoveryNeeded(ctx)).To(BeFalse())
		})
	})

	Describe("IsConflictingErrorActive", func() {
		It("reports an active error splash", func() {
			disp.ErrorSplashActive = true
			Expect(eval.IsConflictingErrorActive(ctx)).To(BeTrue())
		})

		It("reports no conflict when no splash is active", func() {
			Expect(eval.IsConflictingErrorActive(ctx)).To(BeFalse())
		})

		It("treats a failed check as no conflict", func() {
			disp.ErrorSplashActiveErr = errors.New("systemctl unavailable")
			Expect(eval.IsConflictingErrorActive(ctx)).To(BeFalse())
		})
	})
})

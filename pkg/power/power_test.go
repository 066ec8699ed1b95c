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

package power_test

import (
	"context"
	"errors"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/embedos/update-recovery/pkg/power"
	"github.com/embedos/update-recovery/pkg/service/filesystem"
)

var _ = Describe("SystemSequencer", func() {
	const sysrqPath = "/proc/sysrq-trigger"

	var (
		ctx context.Context
		fs  *filesystem.MockFileSystem
		seq *power.SystemSequencer
	)

	BeforeEach(func() {
		ctx = context.Background()
		fs = filesystem.NewMockFileSystem()
		seq = power.NewSystemSequencer(fs, sysrqPath, time.Hour, zap.NewNop().Sugar())
	})

	Describe("PrepareForHardShutdown", func() {
		It("syncs before remounting read-only", func() {
			var writes []string
			fs.WriteFileFunc = func(ctx context.Context, path string, data []byte, perm os.FileMode) error {
				Expect(path).To(Equal(sysrqPath))
				writes = append(writes, string(data))

				return nil
			}

			seq.PrepareForHardShutdown(ctx)

			// Ordering matters: a sync after the remount would be lost.
			Expect(writes).To(Equal([]string{"s", "u"}))
		})

		It("still attempts the remount when the sync write fails", func() {
			var writes []string
			fs.WriteFileFunc = func(ctx context.Context, path string, data []byte, perm os.FileMode) error {
				writes = append(writes, string(data))

				return errors.New("sysrq disabled")
			}

			Expect(func() { seq.PrepareForHardShutdown(ctx) }).NotTo(Panic())
			Expect(writes).To(Equal([]string{"s", "u"}))
		})
	})

	Describe("Reboot", func() {
		It("honors context cancellation during the delay", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			err := seq.Reboot(cancelled, time.Minute)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})

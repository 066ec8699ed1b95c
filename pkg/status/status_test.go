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

package status_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/embedos/update-recovery/pkg/service/filesystem"
	"github.com/embedos/update-recovery/pkg/status"
)

var _ = Describe("Provider", func() {
	const path = "/var/cache/os-updater/status.yaml"

	var (
		ctx      context.Context
		fs       *filesystem.MockFileSystem
		provider *status.Provider
	)

	BeforeEach(func() {
		ctx = context.Background()
		fs = filesystem.NewMockFileSystem()
		provider = status.NewProvider(path, fs)
	})

	It("loads the persisted state", func() {
		fs.WithFile(path, []byte("state: installing-updates\nupdater_version: 4.2.1\nlast_update: 1756500000\n"))

		st, err := provider.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(st.State).To(Equal(status.StateInstallingUpdates))
		Expect(st.UpdaterVersion).To(Equal("4.2.1"))
		Expect(st.LastUpdate).To(Equal(int64(1756500000)))
	})

	It("fails on a missing file", func() {
		_, err := provider.Load(ctx)
		Expect(err).To(HaveOccurred())
	})

	It("fails on malformed yaml", func() {
		fs.WithFile(path, []byte("state: [unclosed"))

		_, err := provider.Load(ctx)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Status", func() {
	DescribeTable("only an interrupted installation needs recovery",
		func(state string, interrupted bool) {
			st := status.Status{State: state}
			Expect(st.InstallInterrupted()).To(Equal(interrupted))
		},
		Entry("no updates", status.StateNoUpdates, false),
		Entry("updates available", status.StateUpdatesAvailable, false),
		Entry("downloading", status.StateDownloadingUpdates, false),
		Entry("downloaded", status.StateUpdatesDownloaded, false),
		Entry("installing", status.StateInstallingUpdates, true),
		Entry("installed", status.StateUpdatesInstalled, false),
		Entry("unknown", "resizing-partitions", false),
	)
})

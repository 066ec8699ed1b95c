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

package tracking_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/embedos/update-recovery/pkg/service/filesystem"
	"github.com/embedos/update-recovery/pkg/tracking"
)

var _ = Describe("Store", func() {
	const path = "/var/cache/os-updater/tracking-id"

	var (
		ctx   context.Context
		fs    *filesystem.MockFileSystem
		store *tracking.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		fs = filesystem.NewMockFileSystem()
		store = tracking.NewStore(path, fs, zap.NewNop().Sugar())
	})

	Describe("Current", func() {
		It("returns the persisted identity", func() {
			id := uuid.MustParse("5a9e3e1e-9c6b-4a7b-9a43-3e1f0b7a9f21")
			fs.WithFile(path, []byte(id.String()+"\n"))

			got, ok := store.Current(ctx)
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(id))
		})

		It("reports absence when the file is missing", func() {
			_, ok := store.Current(ctx)
			Expect(ok).To(BeFalse())
		})

		It("reports absence when the file is not a UUID", func() {
			fs.WithFile(path, []byte("not-a-uuid"))

			_, ok := store.Current(ctx)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Clear", func() {
		It("removes the identity file", func() {
			fs.WithFile(path, []byte(uuid.NewString()))
			store.Clear(ctx)

			_, ok := fs.FileContent(path)
			Expect(ok).To(BeFalse())
		})

		It("is a no-op when the file is absent", func() {
			Expect(func() { store.Clear(ctx) }).NotTo(Panic())
		})
	})
})

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

package retrystore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/embedos/update-recovery/pkg/retrystore"
	"github.com/embedos/update-recovery/pkg/service/filesystem"
)

var _ = Describe("Store", func() {
	const path = "/var/cache/update-recovery/retries"

	var (
		ctx   context.Context
		fs    *filesystem.MockFileSystem
		store *retrystore.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		fs = filesystem.NewMockFileSystem()
		store = retrystore.NewStore(path, fs, zap.NewNop().Sugar())
	})

	Describe("Get", func() {
		It("returns 0 when the counter file is absent", func() {
			Expect(store.Get(ctx)).To(Equal(0))
		})

		It("returns the persisted count", func() {
			fs.WithFile(path, []byte("3"))
			Expect(store.Get(ctx)).To(Equal(3))
		})

		It("tolerates surrounding whitespace", func() {
			fs.WithFile(path, []byte(" 2\n"))
			Expect(store.Get(ctx)).To(Equal(2))
		})

		It("treats a corrupt file as 0", func() {
			fs.WithFile(path, []byte("not-a-number"))
			Expect(store.Get(ctx)).To(Equal(0))
		})

		It("treats a negative count as 0", func() {
			fs.WithFile(path, []byte("-5"))
			Expect(store.Get(ctx)).To(Equal(0))
		})

		It("treats a read failure as 0", func() {
			fs.ReadFileFunc = func(ctx context.Context, path string) ([]byte, error) {
				return nil, errors.New("io error")
			}
			Expect(store.Get(ctx)).To(Equal(0))
		})
	})

	Describe("Increment", func() {
		It("creates the file with 1 on first use", func() {
			store.Increment(ctx)

			data, ok := fs.FileContent(path)
			Expect(ok).To(BeTrue())
			Expect(string(data)).To(Equal("1"))
		})

		It("increments an existing count", func() {
			fs.WithFile(path, []byte("2"))
			store.Increment(ctx)

			data, _ := fs.FileContent(path)
			Expect(string(data)).To(Equal("3"))
		})

		It("restarts from 1 when the file is corrupt", func() {
			fs.WithFile(path, []byte("garbage"))
			store.Increment(ctx)

			data, _ := fs.FileContent(path)
			Expect(string(data)).To(Equal("1"))
		})

		It("swallows write failures", func() {
			fs.WriteFileFunc = func(ctx context.Context, path string, data []byte, perm os.FileMode) error {
				return errors.New("read-only filesystem")
			}

			Expect(func() { store.Increment(ctx) }).NotTo(Panic())
		})

		It("creates the counter's directory first", func() {
			var ensured []string
			fs.EnsureDirectoryFunc = func(ctx context.Context, path string) error {
				ensured = append(ensured, path)

				return nil
			}

			store.Increment(ctx)

			Expect(ensured).To(Equal([]string{"/var/cache/update-recovery"}))
		})

		It("swallows a failure to create the directory", func() {
			fs.EnsureDirectoryFunc = func(ctx context.Context, path string) error {
				return errors.New("read-only filesystem")
			}

			Expect(func() { store.Increment(ctx) }).NotTo(Panic())
			Expect(store.Get(ctx)).To(Equal(0))
		})
	})

	Describe("on a real filesystem", func() {
		It("persists across increments when the parent directory does not exist yet", func() {
			dir := GinkgoT().TempDir()
			counterPath := filepath.Join(dir, "update-recovery", "retries")

			real := retrystore.NewStore(counterPath, filesystem.NewDefaultService(), zap.NewNop().Sugar())

			for i := 1; i <= 5; i++ {
				real.Increment(ctx)
				Expect(real.Get(ctx)).To(Equal(i))
			}

			data, err := os.ReadFile(counterPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("5"))
		})
	})

	Describe("Reset", func() {
		It("removes the counter file", func() {
			fs.WithFile(path, []byte("3"))
			store.Reset(ctx)

			_, ok := fs.FileContent(path)
			Expect(ok).To(BeFalse())
		})

		It("is a no-op when the file is absent", func() {
			Expect(func() { store.Reset(ctx) }).NotTo(Panic())
		})

		It("swallows remove failures", func() {
			fs.WithFile(path, []byte("3"))
			fs.RemoveFunc = func(ctx context.Context, path string) error {
				return errors.New("read-only filesystem")
			}

			Expect(func() { store.Reset(ctx) }).NotTo(Panic())
		})
	})
})

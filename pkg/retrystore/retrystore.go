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

// Package retrystore persists the count of consecutive network-failure
// recovery attempts across reboots. The file is the only state the
// supervisor carries between invocations; absence is equivalent to zero.
//
// Every operation is best-effort. The device this runs on may already have
// a half-broken filesystem, and a counter that cannot be persisted must
// degrade the retry policy, not abort the recovery flow.
package retrystore

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/embedos/update-recovery/pkg/constants"
	"github.com/embedos/update-recovery/pkg/service/filesystem"
)

// Store is the file-backed retry counter.
type Store struct {
	path      string
	fsService filesystem.Service
	logger    *zap.SugaredLogger
}

// NewStore creates a retry counter store at the given path.
func NewStore(path string, fsService filesystem.Service, logger *zap.SugaredLogger) *Store {
	return &Store{
		path:      path,
		fsService: fsService,
		logger:    logger,
	}
}

// Get returns the persisted count, or 0 when the file is absent, unreadable
// or does not contain a non-negative decimal integer. It never fails the
// caller.
func (s *Store) Get(ctx context.Context) int {
	data, err := s.fsService.ReadFile(ctx, s.path)
	if err != nil {
		return 0
	}

	count, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || count < 0 {
		s.logger.Warnf("Retry counter file %s is corrupt, treating as 0", s.path)

		return 0
	}

	return count
}

// Increment performs a best-effort read-modify-write of the counter,
// creating the file on first use. Persistence failures are logged and
// swallowed.
func (s *Store) Increment(ctx context.Context) {
	count := s.Get(ctx) + 1

	// The counter's directory belongs to this program; on a fresh device
	// it does not exist yet.
	if err := s.fsService.EnsureDirectory(ctx, filepath.Dir(s.path)); err != nil {
		s.logger.Warnf("Failed to create retry counter directory: %s", err)

		return
	}

	data := []byte(strconv.Itoa(count))
	if err := s.fsService.WriteFile(ctx, s.path, data, constants.DataFilePermission); err != nil {
		s.logger.Warnf("Failed to persist retry counter: %s", err)

		return
	}

	s.logger.Infof("Retry counter incremented to %d", count)
}

// Reset removes the counter file. Absence is not an error; any other
// failure is logged and swallowed.
func (s *Store) Reset(ctx context.Context) {
	exists, err := s.fsService.PathExists(ctx, s.path)
	if err != nil || !exists {
		return
	}

	if err := s.fsService.Remove(ctx, s.path); err != nil {
		s.logger.Warnf("Failed to remove retry counter: %s", err)

		return
	}

	s.logger.Info("Retry counter reset")
}

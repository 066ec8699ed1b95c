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

// Package tracking reads and clears the update tracking identity, a UUID
// the updater persists so that the attempts of one multi-boot update can be
// correlated. The supervisor relaunches the updater with the flag that
// keeps this identity; on terminal failure it clears the file so the next
// user-initiated update starts a fresh trail.
package tracking

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/embedos/update-recovery/pkg/service/filesystem"
)

// Store reads the persisted tracking identity.
type Store struct {
	path      string
	fsService filesystem.Service
	logger    *zap.SugaredLogger
}

// NewStore creates a tracking identity store at the given path.
func NewStore(path string, fsService filesystem.Service, logger *zap.SugaredLogger) *Store {
	return &Store{
		path:      path,
		fsService: fsService,
		logger:    logger,
	}
}

// Current returns the persisted tracking UUID. The second return value is
// false when the file is absent or does not hold a valid UUID.
func (s *Store) Current(ctx context.Context) (uuid.UUID, bool) {
	data, err := s.fsService.ReadFile(ctx, s.path)
	if err != nil {
		return uuid.UUID{}, false
	}

	id, err := uuid.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		s.logger.Warnf("Tracking identity file %s is not a valid UUID", s.path)

		return uuid.UUID{}, false
	}

	return id, true
}

// Clear removes the persisted identity, best-effort. Absence is not an
// error.
func (s *Store) Clear(ctx context.Context) {
	exists, err := s.fsService.PathExists(ctx, s.path)
	if err != nil || !exists {
		return
	}

	if err := s.fsService.Remove(ctx, s.path); err != nil {
		s.logger.Warnf("Failed to clear tracking identity: %s", err)

		return
	}

	s.logger.Info("Tracking identity cleared")
}

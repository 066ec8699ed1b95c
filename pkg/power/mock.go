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

package power

import (
	"context"
	"sync"
	"time"
)

// MockSequencer is a mock implementation of the power.Sequencer
// interface that records every call instead of touching the system.
// Reboot and HoldIndefinitely return instead of blocking so tests can
// observe them.
type MockSequencer struct {
	mu sync.Mutex

	Prepared    int
	Rebooted    int
	RebootDelay time.Duration
	Held        int

	RebootErr error
}

// NewMockSequencer creates a new MockSequencer.
func NewMockSequencer() *MockSequencer {
	return &MockSequencer{}
}

// PrepareForHardShutdown records the call.
func (m *MockSequencer) PrepareForHardShutdown(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prepared++
}

// Reboot records the call and the requested delay.
func (m *MockSequencer) Reboot(ctx context.Context, delay time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rebooted++
	m.RebootDelay = delay

	return m.RebootErr
}

// HoldIndefinitely records the call and returns.
func (m *MockSequencer) HoldIndefinitely() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Held++
}

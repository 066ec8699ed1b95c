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

package display

import (
	"context"
	"sync"

	"github.com/embedos/update-recovery/pkg/outcome"
)

// MockDisplay is a mock implementation of the display.Service interface
// that records every call.
type MockDisplay struct {
	mu sync.Mutex

	ProgressShown  int
	ProgressHidden int
	SuccessShown   int
	ErrorsShown    []outcome.Code

	ErrorSplashActive    bool
	ErrorSplashActiveErr error
}

// NewMockDisplay creates a new MockDisplay.
func NewMockDisplay() *MockDisplay {
	return &MockDisplay{}
}

// ShowProgress records the call.
func (m *MockDisplay) ShowProgress(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProgressShown++
}

// HideProgress records the call.
func (m *MockDisplay) HideProgress(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProgressHidden++
}

// ShowSuccess records the call.
func (m *MockDisplay) ShowSuccess(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessShown++
}

// ShowError records the outcome shown.
func (m *MockDisplay) ShowError(ctx context.Context, code outcome.Code) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorsShown = append(m.ErrorsShown, code)
}

// AnyErrorSplashActive returns the configured answer.
func (m *MockDisplay) AnyErrorSplashActive(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ErrorSplashActive, m.ErrorSplashActiveErr
}

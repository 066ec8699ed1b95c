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

package runner

import (
	"context"
	"sync"
)

// MockRunner is a mock implementation of the runner.Service interface.
// By default Launch succeeds and Monitor reports a clean exit; set the
// *Func fields to change behavior.
type MockRunner struct {
	mu sync.Mutex

	Launches int
	Monitors int

	LaunchFunc  func(ctx context.Context) (*SupervisedProcess, error)
	MonitorFunc func(ctx context.Context, p *SupervisedProcess) MonitorResult
}

// NewMockRunner creates a new MockRunner.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

// Launch records the call.
func (m *MockRunner) Launch(ctx context.Context) (*SupervisedProcess, error) {
	m.mu.Lock()
	m.Launches++
	m.mu.Unlock()

	if m.LaunchFunc != nil {
		return m.LaunchFunc(ctx)
	}

	return &SupervisedProcess{Pid: 1234, Pgid: 1234, done: make(chan struct{})}, nil
}

// Monitor records the call.
func (m *MockRunner) Monitor(ctx context.Context, p *SupervisedProcess) MonitorResult {
	m.mu.Lock()
	m.Monitors++
	m.mu.Unlock()

	if m.MonitorFunc != nil {
		return m.MonitorFunc(ctx, p)
	}

	return MonitorResult{ExitCode: 0}
}

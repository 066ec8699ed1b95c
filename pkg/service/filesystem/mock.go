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

package filesystem

import (
	"context"
	"os"
	"sync"
)

// MockFileSystem is a mock implementation of the filesystem.Service
// interface. By default it behaves like an empty in-memory filesystem;
// individual operations can be overridden through the *Func fields.
type MockFileSystem struct {
	EnsureDirectoryFunc func(ctx context.Context, path string) error
	ReadFileFunc        func(ctx context.Context, path string) ([]byte, error)
	WriteFileFunc       func(ctx context.Context, path string, data []byte, perm os.FileMode) error
	PathExistsFunc      func(ctx context.Context, path string) (bool, error)
	RemoveFunc          func(ctx context.Context, path string) error
	ExecuteCommandFunc  func(ctx context.Context, name string, args ...string) ([]byte, error)

	mu    sync.Mutex
	files map[string][]byte
	// Commands records every ExecuteCommand invocation (name followed by args).
	Commands [][]string
}

// NewMockFileSystem creates a new MockFileSystem instance.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files: make(map[string][]byte),
	}
}

// WithFile seeds the in-memory filesystem with a file.
func (m *MockFileSystem) WithFile(path string, data []byte) *MockFileSystem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data

	return m
}

// FileContent returns the current in-memory content of path.
func (m *MockFileSystem) FileContent(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]

	return data, ok
}

// EnsureDirectory creates a directory if it doesn't exist.
func (m *MockFileSystem) EnsureDirectory(ctx context.Context, path string) error {
	if m.EnsureDirectoryFunc != nil {
		return m.EnsureDirectoryFunc(ctx, path)
	}

	return nil
}

// ReadFile reads a file's contents.
func (m *MockFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(ctx, path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}

	return data, nil
}

// WriteFile writes data to a file.
func (m *MockFileSystem) WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(ctx, path, data, perm)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), data...)

	return nil
}

// PathExists checks if a file exists in the in-memory filesystem.
func (m *MockFileSystem) PathExists(ctx context.Context, path string) (bool, error) {
	if m.PathExistsFunc != nil {
		return m.PathExistsFunc(ctx, path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]

	return ok, nil
}

// Remove removes a file.
func (m *MockFileSystem) Remove(ctx context.Context, path string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[path]; !ok {
		return os.ErrNotExist
	}
	delete(m.files, path)

	return nil
}

// ExecuteCommand records the invocation and returns empty output.
func (m *MockFileSystem) ExecuteCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, append([]string{name}, args...))
	m.mu.Unlock()

	if m.ExecuteCommandFunc != nil {
		return m.ExecuteCommandFunc(ctx, name, args...)
	}

	return nil, nil
}

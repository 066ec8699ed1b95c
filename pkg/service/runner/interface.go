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

// Package runner launches the updater child in its own process group and
// supervises it: polling for exit, enforcing the wall-clock budget, and
// escalating SIGTERM to SIGKILL against the whole group on termination.
package runner

import (
	"context"
	"time"
)

// MonitorResult is what a finished monitoring loop reports back.
type MonitorResult struct {
	// ExitCode is the child's exit code. Meaningless when TimedOut is set.
	ExitCode int

	// TimedOut is set when the wall-clock budget expired and the child
	// was terminated by the supervisor rather than exiting on its own.
	TimedOut bool

	// Elapsed is the wall-clock time between launch and the loop ending.
	Elapsed time.Duration
}

// Config carries the launch and supervision parameters.
type Config struct {
	// UpdaterBinary is the path of the child executable.
	UpdaterBinary string

	// UpdaterArgs are the arguments passed to the child.
	UpdaterArgs []string

	// ChildLogDir, when set, is where the child's combined output is
	// persisted. A device parked in the hold state keeps the log of the
	// failed attempt for a technician.
	ChildLogDir string

	// PollInterval is how often the child is checked for exit.
	PollInterval time.Duration

	// SystemTimeout is the wall-clock budget for the whole attempt.
	SystemTimeout time.Duration

	// TerminateGracePeriod is how long a SIGTERM'd group gets before
	// SIGKILL.
	TerminateGracePeriod time.Duration

	// ResourceSampleInterval is how often the child's resource usage is
	// sampled for metrics. Zero disables sampling.
	ResourceSampleInterval time.Duration
}

// Service launches and supervises the updater child.
type Service interface {
	// Launch starts the child in a fresh process group. It returns an
	// error only when the process could not be started at all.
	Launch(ctx context.Context) (*SupervisedProcess, error)

	// Monitor blocks until the child exits or the wall-clock budget
	// expires, whichever comes first.
	Monitor(ctx context.Context, process *SupervisedProcess) MonitorResult
}

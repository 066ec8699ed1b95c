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

// Package outcome defines the closed set of terminal results a recovery run
// can produce. The numeric values double as the supervisor's own process
// exit codes, forming the operational contract with the boot scripts.
package outcome

// Code is a supervisor-level result.
type Code int

const (
	// Success means the retried update completed, or no recovery was needed.
	Success Code = 0
	// LaunchFailure covers a failed child launch and any child exit code
	// without a more specific classification.
	LaunchFailure Code = 1
	// NetworkUnreachable means the child could not reach the network or the
	// update source and the attempt will be retried on the next boot.
	NetworkUnreachable Code = 2
	// NetworkRetriesExceeded means consecutive network failures exhausted
	// the permitted retry budget.
	NetworkRetriesExceeded Code = 3
	// ProgressTimeout means the child detected its own internal stall. It is
	// distinct from the supervisor's global timeout.
	ProgressTimeout Code = 4
	// SystemTimeout means the supervisor's global time budget elapsed and
	// the child's process group was forcefully terminated.
	SystemTimeout Code = 5
)

// String returns the stable identifier used for reporting and for naming
// the per-outcome error display unit.
func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case LaunchFailure:
		return "launch-failure"
	case NetworkUnreachable:
		return "network-unreachable"
	case NetworkRetriesExceeded:
		return "network-retries-exceeded"
	case ProgressTimeout:
		return "progress-timeout"
	case SystemTimeout:
		return "system-timeout"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit status for this outcome.
func (c Code) ExitCode() int {
	return int(c)
}

// IsFailure reports whether the code is one of the failure kinds.
func (c Code) IsFailure() bool {
	return c != Success
}

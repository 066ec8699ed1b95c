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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/embedos/update-recovery/pkg/logger"
	"github.com/embedos/update-recovery/pkg/metrics"
)

// SupervisedProcess is a launched updater child. The exit code is only
// valid after the done channel is closed.
type SupervisedProcess struct {
	// Pid is the child's process id.
	Pid int

	// Pgid is the child's process group id. Signals for termination are
	// sent to the whole group so the child's own children die with it.
	Pgid int

	cmd      *exec.Cmd
	done     chan struct{}
	exitCode int
}

// Exited reports whether the child has exited, without blocking, and its
// exit code when it has.
func (p *SupervisedProcess) Exited() (int, bool) {
	select {
	case <-p.done:
		return p.exitCode, true
	default:
		return 0, false
	}
}

// UpdaterRunner is the production runner.Service.
type UpdaterRunner struct {
	config Config
	logger *zap.SugaredLogger
}

// NewUpdaterRunner creates a runner with the given supervision parameters.
func NewUpdaterRunner(config Config, log *zap.SugaredLogger) *UpdaterRunner {
	return &UpdaterRunner{
		config: config,
		logger: log,
	}
}

// Launch starts the updater child in its own process group and begins
// streaming its output into the supervisor's log.
func (r *UpdaterRunner) Launch(ctx context.Context) (*SupervisedProcess, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cmd := exec.Command(r.config.UpdaterBinary, r.config.UpdaterArgs...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch updater %s: %w", r.config.UpdaterBinary, err)
	}

	pid := cmd.Process.Pid

	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		// The group was requested at start, so this should not happen;
		// fall back to the pid, which equals the pgid for a group leader.
		pgid = pid
	}

	p := &SupervisedProcess{
		Pid:  pid,
		Pgid: pgid,
		cmd:  cmd,
		done: make(chan struct{}),
	}

	childLog := logger.For(logger.ComponentRunner).Named("updater")
	logFile := r.openChildLog()

	var streams sync.WaitGroup
	streams.Add(2)

	go r.streamOutput(&streams, stdout, childLog, logFile)
	go r.streamOutput(&streams, stderr, childLog, logFile)

	go func() {
		// Both pipes must be drained before Wait reclaims them.
		streams.Wait()

		if logFile != nil {
			_ = logFile.Close()
		}

		err := cmd.Wait()
		p.exitCode = exitCodeOf(cmd, err)
		close(p.done)
	}()

	r.logger.Infof("Launched updater %s (pid %d, pgid %d)", r.config.UpdaterBinary, pid, pgid)

	return p, nil
}

// Monitor polls the child until it exits or the wall-clock budget expires.
// A cancelled context is treated like budget expiry: the child is
// terminated and the result is reported as timed out.
func (r *UpdaterRunner) Monitor(ctx context.Context, p *SupervisedProcess) MonitorResult {
	start := time.Now()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	var lastSample time.Time

	for {
		select {
		case <-ctx.Done():
			r.Terminate(p)

			return MonitorResult{TimedOut: true, Elapsed: time.Since(start)}
		case <-p.done:
			return MonitorResult{ExitCode: p.exitCode, Elapsed: time.Since(start)}
		case <-ticker.C:
			elapsed := time.Since(start)
			metrics.SetMonitorElapsed(elapsed)

			if code, exited := p.Exited(); exited {
				return MonitorResult{ExitCode: code, Elapsed: elapsed}
			}

			if elapsed >= r.config.SystemTimeout {
				r.logger.Warnf("Updater exceeded the %s budget after %s, terminating pgid %d",
					r.config.SystemTimeout, elapsed.Round(time.Second), p.Pgid)
				r.Terminate(p)

				return MonitorResult{TimedOut: true, Elapsed: time.Since(start)}
			}

			if r.config.ResourceSampleInterval > 0 && time.Since(lastSample) >= r.config.ResourceSampleInterval {
				r.sampleResources(p)
				lastSample = time.Now()
			}
		}
	}
}

// Terminate sends SIGTERM to the child's process group, waits out the
// grace period and escalates to SIGKILL if the child is still alive.
func (r *UpdaterRunner) Terminate(p *SupervisedProcess) {
	if _, exited := p.Exited(); exited {
		return
	}

	if err := unix.Kill(-p.Pgid, unix.SIGTERM); err != nil {
		r.logger.Warnf("Failed to SIGTERM pgid %d: %s", p.Pgid, err)
	}

	select {
	case <-p.done:
		return
	case <-time.After(r.config.TerminateGracePeriod):
	}

	r.logger.Warnf("Updater pgid %d survived SIGTERM for %s, sending SIGKILL",
		p.Pgid, r.config.TerminateGracePeriod)

	if err := unix.Kill(-p.Pgid, unix.SIGKILL); err != nil {
		r.logger.Warnf("Failed to SIGKILL pgid %d: %s", p.Pgid, err)
	}

	// SIGKILL cannot be ignored, so the wait goroutine closes done soon.
	<-p.done
}

// openChildLog opens the persisted child log, or returns nil when
// persistence is disabled or unavailable. The child must still run with
// no writable log location.
func (r *UpdaterRunner) openChildLog() *os.File {
	if r.config.ChildLogDir == "" {
		return nil
	}

	if err := os.MkdirAll(r.config.ChildLogDir, 0o755); err != nil {
		r.logger.Warnf("Failed to create child log directory: %s", err)

		return nil
	}

	f, err := os.Create(filepath.Join(r.config.ChildLogDir, "updater.log"))
	if err != nil {
		r.logger.Warnf("Failed to create child log file: %s", err)

		return nil
	}

	return f
}

// streamOutput copies one child pipe line by line into the given logger
// and, when available, the persisted child log.
func (r *UpdaterRunner) streamOutput(wg *sync.WaitGroup, pipe io.Reader, log *zap.SugaredLogger, logFile *os.File) {
	defer wg.Done()

	scanner := bufio.NewScanner(pipe)
	for scanner.Scan() {
		line := scanner.Text()
		log.Info(line)

		if logFile != nil {
			_, _ = logFile.WriteString(line + "\n")
		}
	}
}

// sampleResources publishes the child's current RSS and CPU usage.
func (r *UpdaterRunner) sampleResources(p *SupervisedProcess) {
	proc, err := process.NewProcess(int32(p.Pid))
	if err != nil {
		return
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		return
	}

	cpu, err := proc.CPUPercent()
	if err != nil {
		return
	}

	metrics.SetChildResources(mem.RSS, cpu)
	r.logger.Debugf("Updater pid %d: rss=%d bytes cpu=%.1f%%", p.Pid, mem.RSS, cpu)
}

// exitCodeOf extracts the child's exit code after Wait returned.
func exitCodeOf(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}

	if waitErr != nil {
		return -1
	}

	return 0
}

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

// Package status reads the external updater's persisted state file. The
// file is owned by the updater; this package is a read-only collaborator
// used to decide whether a boot needs recovery at all.
package status

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/embedos/update-recovery/pkg/service/filesystem"
)

// Updater lifecycle states as persisted by the updater itself.
const (
	StateNoUpdates          = "no-updates-available"
	StateUpdatesAvailable   = "updates-available"
	StateDownloadingUpdates = "downloading-updates"
	StateUpdatesDownloaded  = "updates-downloaded"
	StateInstallingUpdates  = "installing-updates"
	StateUpdatesInstalled   = "updates-installed"
)

// Status is the updater's persisted state.
type Status struct {
	State          string `yaml:"state"`
	UpdaterVersion string `yaml:"updater_version"`
	LastUpdate     int64  `yaml:"last_update"`
}

// InstallInterrupted reports whether the persisted state means an
// installation was cut short and must be recovered.
func (s Status) InstallInterrupted() bool {
	return s.State == StateInstallingUpdates
}

// Provider loads the status file.
type Provider struct {
	path      string
	fsService filesystem.Service
}

// NewProvider creates a status provider for the given file path.
func NewProvider(path string, fsService filesystem.Service) *Provider {
	return &Provider{
		path:      path,
		fsService: fsService,
	}
}

// Load reads and parses the status file. A missing file is returned as an
// error wrapping the underlying cause; callers on the boot path treat any
// load failure as "no recovery needed" so a healthy boot is never
// disturbed.
func (p *Provider) Load(ctx context.Context) (Status, error) {
	data, err := p.fsService.ReadFile(ctx, p.path)
	if err != nil {
		return Status{}, fmt.Errorf("failed to load updater status: %w", err)
	}

	var st Status
	if err := yaml.Unmarshal(data, &st); err != nil {
		return Status{}, fmt.Errorf("failed to parse updater status: %w", err)
	}

	return st, nil
}

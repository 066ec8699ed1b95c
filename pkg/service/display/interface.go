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

// Package display starts and stops the named splash services that put
// recovery progress and outcomes on the device's screen. The rendering is
// entirely external; the contract here is "start unit X, stop unit Y".
package display

import (
	"context"

	"github.com/embedos/update-recovery/pkg/outcome"
)

// Service controls the external splash units. All operations are
// best-effort: a display that cannot be driven must never abort the
// recovery flow.
type Service interface {
	// ShowProgress starts the "recovery in progress" splash.
	ShowProgress(ctx context.Context)

	// HideProgress stops the progress splash.
	HideProgress(ctx context.Context)

	// ShowSuccess starts the success splash.
	ShowSuccess(ctx context.Context)

	// ShowError starts the uniquely named error splash for the given
	// failure outcome.
	ShowError(ctx context.Context, code outcome.Code)

	// AnyErrorSplashActive reports whether any error splash unit matching
	// the wildcard naming pattern is already active, e.g. because an
	// earlier recovery stage failed upstream.
	AnyErrorSplashActive(ctx context.Context) (bool, error)
}

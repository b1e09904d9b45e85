// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrateuc

import (
	"errors"
	"fmt"
	"time"

	"github.com/momeni/bulkmig/pkg/core/model"
)

// Option is a functional option for the migration use case.
type Option func(uc *UseCase) error

// WithWorkDir option configures the directory which holds the
// transient artifact files. The directory is created by New if it does
// not exist. This option may be passed to the New() function.
func WithWorkDir(dir string) Option {
	return func(uc *UseCase) error {
		if dir == "" {
			return errors.New("empty working directory")
		}
		if uc.workDir != "" {
			return errors.New("working directory is already configured")
		}
		uc.workDir = dir
		return nil
	}
}

// WithFormat option selects the dump format for all exports of this
// use case instance. This option may be passed to the New() function.
func WithFormat(format model.Format) Option {
	return func(uc *UseCase) error {
		if err := format.Validate(); err != nil {
			return fmt.Errorf("dump format: %w", err)
		}
		if uc.format != "" {
			return errors.New("dump format is already configured")
		}
		uc.format = format
		return nil
	}
}

// WithConfirmer option installs the batch confirmation step. In its
// absence, AcceptAll is used, which corresponds to a non-interactive
// acknowledgment. This option may be passed to the New() function.
func WithConfirmer(confirm Confirmer) Option {
	return func(uc *UseCase) error {
		if confirm == nil {
			return errors.New("nil confirmer")
		}
		if uc.confirm != nil {
			return errors.New("confirmer is already configured")
		}
		uc.confirm = confirm
		return nil
	}
}

// WithClock option overrides the time source which timestamps artifact
// file names and the batch summary. It exists for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) error {
		if now == nil {
			return errors.New("nil clock")
		}
		if uc.now != nil {
			return errors.New("clock is already configured")
		}
		uc.now = now
		return nil
	}
}

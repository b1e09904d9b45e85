// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/momeni/bulkmig/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStdout runs f with os.Stdout redirected to a pipe and returns
// everything f printed.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() {
		os.Stdout = old
	}()
	f()
	require.NoError(t, w.Close())
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

// feedStdin runs f with os.Stdin replaced by a pipe carrying input.
func feedStdin(t *testing.T, input string, f func()) {
	t.Helper()
	old := os.Stdin
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString(input)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	os.Stdin = r
	defer func() {
		os.Stdin = old
	}()
	f()
}

func TestAcceptAfterPlan(t *testing.T) {
	var ok bool
	var err error
	out := captureStdout(t, func() {
		ok, err = acceptAfterPlan(
			context.Background(),
			model.Inventory{"app_db", "billing_db"},
			model.FormatInserts,
		)
	})
	require.NoError(t, err)
	// the acknowledgment is implicit, but the plan is still printed
	assert.True(t, ok)
	assert.Contains(t, out, "Databases to migrate (2)")
	assert.Contains(t, out, "app_db")
	assert.Contains(t, out, "billing_db")
	assert.Contains(t, out, "INSERT format")
	assert.NotContains(t, out, "Continue?")
}

func TestPromptConfirmer(t *testing.T) {
	for input, expected := range map[string]bool{
		"y\n":   true,
		"yes\n": true,
		"Y\n":   true,
		"n\n":   false,
		"\n":    false,
	} {
		var ok bool
		var err error
		feedStdin(t, input, func() {
			out := captureStdout(t, func() {
				ok, err = promptConfirmer(
					context.Background(),
					model.Inventory{"app_db"},
					model.FormatCopy,
				)
			})
			assert.Contains(t, out, "Databases to migrate (1)")
			assert.Contains(t, out, "Continue? (y/N): ")
			// the COPY format needs no caveat
			assert.NotContains(t, out, "INSERT format")
		})
		require.NoError(t, err)
		assert.Equal(t, expected, ok, "input %q", input)
	}
}

package cerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/momeni/bulkmig/pkg/core/cerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := cerr.Export(errors.New("pg_dump: exit status 1: boom"))
	assert.Equal(t, "export: pg_dump: exit status 1: boom", err.Error())
	assert.Equal(t, "already-exists", cerr.AlreadyExists(nil).Error())
}

func TestKindMatching(t *testing.T) {
	inner := errors.New("connection refused")
	err := fmt.Errorf("migrating: %w", cerr.Connection(inner))
	assert.True(t, errors.Is(err, cerr.Connection(nil)))
	assert.False(t, errors.Is(err, cerr.Query(nil)))
	// the wrapped diagnostic stays reachable
	assert.True(t, errors.Is(err, inner))
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", cerr.Import(errors.New("psql died")))
	kind, ok := cerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, cerr.KindImport, kind)

	_, ok = cerr.KindOf(errors.New("plain"))
	assert.False(t, ok)
}

package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunSortsByTime(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	a := NewRun(t0)
	b := NewRun(t0)
	c := NewRun(t0.Add(time.Second))

	assert.Len(t, a, 26)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestStarted(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	got, err := Started(NewRun(t0))
	require.NoError(t, err)
	assert.True(t, got.Equal(t0))

	_, err = Started("not-a-ulid")
	assert.Error(t, err)
}

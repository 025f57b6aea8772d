package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := New(nil, nil)
	err := s.Start("not a cron spec")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sync schedule")
}

func TestOnlyOneRunAtATime(t *testing.T) {
	s := New(nil, nil)

	require.True(t, s.tryAcquire())
	assert.False(t, s.tryAcquire(), "second acquire must be refused while running")

	s.release()
	assert.True(t, s.tryAcquire(), "acquire must succeed again after release")
}

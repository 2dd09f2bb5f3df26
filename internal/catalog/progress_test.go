package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProgress_DefaultsToInit(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	p, cacheIndex, err := s.GetProgress()
	require.NoError(t, err)
	assert.Equal(t, Init, p)
	assert.EqualValues(t, 0, cacheIndex)
}

func TestSetProgress_RoundTrips(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	require.NoError(t, s.SetProgress(FirstLoopInProgress, 7))

	p, cacheIndex, err := s.GetProgress()
	require.NoError(t, err)
	assert.Equal(t, FirstLoopInProgress, p)
	assert.EqualValues(t, 7, cacheIndex)

	require.NoError(t, s.SetProgress(SecondLoopDone, 42))
	p, cacheIndex, err = s.GetProgress()
	require.NoError(t, err)
	assert.Equal(t, SecondLoopDone, p)
	assert.EqualValues(t, 42, cacheIndex)
}

func TestProgress_StringNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "INIT", Init.String())
	assert.Equal(t, "FIRST_LOOP_IN_PROGRESS", FirstLoopInProgress.String())
	assert.Equal(t, "SECOND_LOOP_DONE", SecondLoopDone.String())
}

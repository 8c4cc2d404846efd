package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransition(t *testing.T) {
	assert.True(t, StatusPending.CanTransition(StatusInProgress))
	assert.True(t, StatusInProgress.CanTransition(StatusCompleted))
	assert.True(t, StatusInProgress.CanTransition(StatusFailed))
	assert.True(t, StatusCompleted.CanTransition(StatusPending))
	assert.True(t, StatusFailed.CanTransition(StatusPending))

	assert.False(t, StatusPending.CanTransition(StatusCompleted))
	assert.False(t, StatusInProgress.CanTransition(StatusPending))
	assert.False(t, StatusCompleted.CanTransition(StatusInProgress))
	assert.False(t, StatusCompleted.CanTransition(StatusFailed))
	assert.False(t, Status("bogus").CanTransition(StatusPending))
}

func TestParseKinds(t *testing.T) {
	k, err := ParseEntityKind("method")
	require.NoError(t, err)
	assert.Equal(t, KindMethod, k)

	_, err = ParseEntityKind("struct")
	assert.Error(t, err)

	r, err := ParseRelationKind("imports")
	require.NoError(t, err)
	assert.True(t, r.FileLevel())
	assert.False(t, RelationCalls.FileLevel())

	st, err := ParseStatus(" COMPLETED ")
	require.NoError(t, err)
	assert.True(t, st.Terminal())
}

func TestLanguage_Supported(t *testing.T) {
	for _, l := range SupportedLanguages {
		assert.True(t, l.Supported())
	}
	assert.False(t, Language("go").Supported())
	assert.False(t, Language("").Supported())
}

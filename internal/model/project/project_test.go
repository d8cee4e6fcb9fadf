package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, raw := range []string{"web", "Mobile", " api ", "FULLSTACK"} {
		_, err := ParseType(raw)
		require.NoError(t, err, raw)
	}
	_, err := ParseType("desktop")
	assert.Error(t, err)
}

func TestParseRoleDefaultsToViewer(t *testing.T) {
	r, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleViewer, r)

	_, err = ParseRole("admin")
	assert.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Archived")
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, s)

	_, err = ParseStatus("deleted")
	assert.Error(t, err)
}

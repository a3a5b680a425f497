package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrailEntry(t *testing.T) {
	entry, err := NewTrailEntry("STATUS-CHANGE", StatusChangeDetail{
		Action:     "APPROVE",
		FromStatus: "PENDING-APPROVAL",
		ToStatus:   "APPROVED",
	})
	require.NoError(t, err)
	assert.Equal(t, "STATUS-CHANGE", entry.TrailAction)
	assert.JSONEq(t, `{"action":"APPROVE","fromStatus":"PENDING-APPROVAL","toStatus":"APPROVED"}`, entry.Detail)
	assert.True(t, entry.IsNew())
}

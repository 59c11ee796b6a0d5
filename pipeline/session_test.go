// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID(t *testing.T) {
	sessionID := NewSessionID()

	// Should be a valid UUID string
	parsed, err := uuid.Parse(sessionID)
	require.NoError(t, err)

	// Should be version 7 (time-ordered)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestNewSessionIDUniqueness(t *testing.T) {
	// Generate multiple span IDs and verify they're all unique
	const count = 100
	seen := make(map[string]struct{}, count)

	for range count {
		sessionID := NewSessionID()
		_, duplicate := seen[sessionID]
		require.False(t, duplicate, "duplicate span ID generated: %s", sessionID)
		seen[sessionID] = struct{}{}
	}
}

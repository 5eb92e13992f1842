package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 15, 10, 30, 0, 123000000, time.UTC) // Millisecond precision survives
	id := "b1946ac9-2e4a-4f2e-9a88-0d7f3f2a1c55"

	cursor := EncodeCursor(created, id)
	gotCreated, gotID, err := DecodeCursor(cursor)
	require.NoError(t, err)
	assert.True(t, created.Equal(gotCreated))
	assert.Equal(t, id, gotID)
}

func TestDecodeCursorIDWithUnderscores(t *testing.T) {
	// Only the first underscore separates timestamp from ID.
	cursor := EncodeCursor(time.UnixMilli(1700000000000), "legacy_id_with_underscores")
	_, id, err := DecodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, "legacy_id_with_underscores", id)
}

func TestDecodeCursorInvalid(t *testing.T) {
	for _, cursor := range []string{"", "noseparator", "_", "123_", "notanumber_abc"} {
		_, _, err := DecodeCursor(cursor)
		assert.Error(t, err, "cursor %q should be rejected", cursor)
	}
}

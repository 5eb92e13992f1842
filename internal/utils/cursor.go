package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// List cursors are opaque, forward-only tokens over (created desc, _id desc).
// They are last-seen sort keys, not snapshots: concurrent writes may shift
// what later pages see, which is acceptable for these list views.

// EncodeCursor builds a cursor token from the last item of a page. The
// timestamp is encoded at millisecond precision, matching what the storage
// layer persists, so the decoded value compares equal to the stored one.
func EncodeCursor(created time.Time, id string) string {
	return fmt.Sprintf("%d_%s", created.UnixMilli(), id)
}

// DecodeCursor parses a cursor token back into its sort key.
func DecodeCursor(cursor string) (time.Time, string, error) {
	parts := strings.SplitN(cursor, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", errors.New("invalid cursor format")
	}
	ms, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	return time.UnixMilli(ms).UTC(), parts[1], nil
}

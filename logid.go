package log4you

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewLogID returns a fresh log identifier: a UUIDv7 rendered as 32 lowercase
// hex characters with the dashes stripped. The millisecond timestamp prefix of
// the v7 layout makes IDs generated later sort lexically after earlier ones.
//
// Generation never fails. In the degenerate case where the entropy source is
// unavailable the ID degrades to a random v4, which keeps uniqueness but not
// sort order.
func NewLogID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return NewLogIDFrom(id)
}

// NewLogIDFrom renders an existing UUID in log ID form: 32 lowercase hex
// characters, no dashes.
func NewLogIDFrom(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

// ParseLogID converts a 32-character log ID back into the UUID it was
// rendered from.
func ParseLogID(logID string) (uuid.UUID, error) {
	if len(logID) != logIDLength {
		return uuid.Nil, fmt.Errorf("log id must be %d characters, got %d", logIDLength, len(logID))
	}
	id, err := uuid.Parse(logID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed log id %q: %w", logID, err)
	}
	return id, nil
}

// LogIDTime extracts the creation timestamp embedded in a v7-derived log ID.
// The second return is false when the ID is malformed or was generated via
// the v4 fallback and carries no timestamp.
func LogIDTime(logID string) (time.Time, bool) {
	id, err := ParseLogID(logID)
	if err != nil || id.Version() != 7 {
		return time.Time{}, false
	}
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec).UTC(), true
}

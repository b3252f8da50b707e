package model

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// NewID returns a positive ID derived from a UUIDv7. The leading bits of a
// UUIDv7 are a millisecond timestamp, so IDs minted by one client sort by
// creation time.
func NewID() int64 {
	u := uuid.Must(uuid.NewV7())
	return int64(binary.BigEndian.Uint64(u[:8]) >> 1)
}

// NewRepositoryUUID returns the identity minted for a new repository.
func NewRepositoryUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

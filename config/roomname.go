package config

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// RoomNameForBinary appends a stable hash of binary to base so that peers
// running a mismatched build of the simulation never end up sharing a room
// (spec.md §4.1.2). xxhash is non-cryptographic by design: this is a
// disambiguation checksum, not an authentication mechanism.
func RoomNameForBinary(base string, binary []byte) string {
	sum := xxhash.Sum64(binary)
	return fmt.Sprintf("%s-%016x", base, sum)
}

// GenerateRoomName derives a room name when the embedder has no base name
// of its own to offer, using a v4 UUID as the ambient embedding context
// placeholder referenced by spec.md §4.1.2.
func GenerateRoomName() string {
	return "room-" + uuid.NewString()
}

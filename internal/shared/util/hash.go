package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const ownerSegmentLen = 16

// OwnerSegment returns the storage-key segment that groups a user's blobs.
// It is a truncated SHA-256 of the trimmed user id, so keys never expose
// the id itself.
func OwnerSegment(userID string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(userID)))
	return hex.EncodeToString(sum[:])[:ownerSegmentLen]
}

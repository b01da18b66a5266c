package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey maps an owner id to the hex digest used in artifact paths, so
// raw ids and guest tokens never appear in storage keys.
func HashUserKey(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}

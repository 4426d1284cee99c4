package service

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint is the revocation key for a raw token: the hex BLAKE3-256
// digest of the whole token string. Raw tokens never reach a store.
func Fingerprint(token string) string {
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

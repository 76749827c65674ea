package ingest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is the SHA-256 digest of the exact UTF-8 bytes of raw.
func Fingerprint(raw string) [32]byte {
	return sha256.Sum256([]byte(raw))
}

func FingerprintHex(raw string) string {
	sum := Fingerprint(raw)
	return hex.EncodeToString(sum[:])
}

package storage

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// DigestContent - A stable, non-reversible identifier for analysed content.
func DigestContent(content string) string {
	sum := blake2b.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

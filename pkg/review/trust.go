package review

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// trustKey maps a provenance source string (usually a process id) onto a
// fixed-size keyspace via blake2b-256, so the trust table's key size never
// grows with the length or cardinality of caller-supplied source strings.
func trustKey(source string) string {
	sum := blake2b.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

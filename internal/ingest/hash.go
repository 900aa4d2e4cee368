package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// GenerateHash derives the deduplication key of a record. The same
// (date, amount, merchant, source) always yields the same 64-char hex digest.
// Each field is length-prefixed so no two tuples share a key.
func GenerateHash(date, amount, merchant, source string) string {
	h := sha256.New()
	for _, field := range [...]string{date, amount, merchant, source} {
		h.Write([]byte(strconv.Itoa(len(field))))
		h.Write([]byte{':'})
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}

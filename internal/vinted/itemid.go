package vinted

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ListingID derives a stable identifier from a listing URL so the same
// real-world listing maps to the same dedup key across runs. Canonical item
// URLs carry a numeric id at the start of the slug segment ("/items/123456-
// levis-501"); that id is the key. URLs without one fall back to a truncated
// hash of the whole URL.
func ListingID(rawURL string) string {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	for _, part := range strings.Split(trimmed, "/") {
		if id := leadingDigits(part); id != "" {
			return id
		}
	}

	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])[:12]
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}

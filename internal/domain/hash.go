package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

const alertIDLength = 12

// HashURL returns the stable content-addressed identity of a URL, used as
// the key in the deduplication map.
func HashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// AlertID derives the alert identity from its URL and timestamp. It is a
// pure function: queuing the same (url, timestamp) twice yields the same ID.
func AlertID(url, timestamp string) string {
	sum := sha256.Sum256([]byte(url + timestamp))
	return hex.EncodeToString(sum[:])[:alertIDLength]
}

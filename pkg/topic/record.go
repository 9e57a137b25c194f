// Package topic is the novelty memory of used video topics: an append-only
// embedding store, the checker that rejects candidates too close to past
// topics, the selection policy and the two-phase cycle that commits a pick.
package topic

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Record is a stored topic.
type Record struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
}

// Neighbor is a stored record and its squared L2 distance to a query.
type Neighbor struct {
	Record
	Distance float32 `json:"distance"`
}

// ID returns the deterministic identifier of a topic: the lowercase hex
// SHA-256 of its trimmed text.
func ID(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

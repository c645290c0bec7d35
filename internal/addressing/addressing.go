// Package addressing derives the deterministic digests that join local
// records to their ledger mirror events.
package addressing

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"time"
)

// Hash returns the content address of a payload authored at the given
// instant. The address is computed once at creation and never recomputed on
// edit.
func Hash(payload, authorID string, at time.Time) string {
	h := sha256.New()
	writeField(h, payload)
	writeField(h, authorID)
	writeField(h, at.UTC().Format(time.RFC3339Nano))
	return hex.EncodeToString(h.Sum(nil))
}

// ActionDigest is the analogue of Hash for actions without a payload of their
// own (likes, follows, messages).
func ActionDigest(kind string, at time.Time, parts ...string) string {
	h := sha256.New()
	writeField(h, kind)
	for _, p := range parts {
		writeField(h, p)
	}
	writeField(h, at.UTC().Format(time.RFC3339Nano))
	return hex.EncodeToString(h.Sum(nil))
}

// writeField length-prefixes each field so no two field lists share an
// encoding.
func writeField(h hash.Hash, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	h.Write(n[:])
	h.Write([]byte(s))
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// FingerprintDomain separates record fingerprints from other digests.
const FingerprintDomain = "recordengine/record/v1"

// Fingerprint computes the concurrency token of a record: a SHA-256 over
// its keys and raw content, hex encoded. Two records are unchanged
// relative to each other iff their fingerprints are equal.
//
// Format: SHA256(domain + 0x00 + for each part: uint32 length + bytes)
func Fingerprint(rec *Record) string {
	h := sha256.New()
	h.Write([]byte(FingerprintDomain))
	h.Write([]byte{0x00})

	var n [4]byte
	write := func(b []byte) {
		binary.BigEndian.PutUint32(n[:], uint32(len(b)))
		h.Write(n[:])
		h.Write(b)
	}
	binary.BigEndian.PutUint32(n[:], uint32(len(rec.Keys)))
	h.Write(n[:])
	for _, k := range rec.Keys {
		write(k)
	}
	write(rec.Data)
	return hex.EncodeToString(h.Sum(nil))
}

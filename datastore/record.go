/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"bytes"
	"encoding/hex"

	"github.com/suparena/recordengine/storagemodels"
)

// Record is the store's unit of data. Keys[0] is the primary key and
// Keys[i] the key under secondary index i. Data is the raw content.
type Record struct {
	Keys [][]byte
	Data []byte
}

// NewRecord allocates a record with room for the given number of index keys.
func NewRecord(indexes int) *Record {
	if indexes < 1 {
		indexes = 1
	}
	return &Record{Keys: make([][]byte, indexes)}
}

// PrimaryKey returns the key on index 0.
func (r *Record) PrimaryKey() []byte {
	return r.Key(0)
}

// Key returns the key on index, or nil when the record has none.
func (r *Record) Key(index int) []byte {
	if index < 0 || index >= len(r.Keys) {
		return nil
	}
	return r.Keys[index]
}

// SetKey stores key under index, growing Keys when needed.
func (r *Record) SetKey(index int, key []byte) {
	for len(r.Keys) <= index {
		r.Keys = append(r.Keys, nil)
	}
	r.Keys[index] = key
}

// Position returns the record's position on index.
func (r *Record) Position(index int) storagemodels.Position {
	pos := storagemodels.Position{Index: index, Key: bytes.Clone(r.Key(index))}
	pos.Pk = bytes.Clone(r.PrimaryKey())
	return pos
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := &Record{Keys: make([][]byte, len(r.Keys)), Data: bytes.Clone(r.Data)}
	for i, k := range r.Keys {
		c.Keys[i] = bytes.Clone(k)
	}
	return c
}

// KeyString renders the primary key for logs and error messages.
func (r *Record) KeyString() string {
	return KeyString(r.PrimaryKey())
}

// KeyString renders a raw key: printable keys as text, others as hex.
func KeyString(key []byte) string {
	for _, b := range key {
		if b < 0x20 || b > 0x7e {
			return "0x" + hex.EncodeToString(key)
		}
	}
	return string(key)
}

// ComparePosition orders rec against pos on pos.Index: primary key order
// on index 0, secondary key then primary key on the others. A position
// without Pk compares on the secondary key alone.
func ComparePosition(rec *Record, pos storagemodels.Position) int {
	if c := bytes.Compare(rec.Key(pos.Index), pos.Key); c != 0 || pos.Index == 0 {
		return c
	}
	if pos.Pk == nil {
		return 0
	}
	return bytes.Compare(rec.PrimaryKey(), pos.Pk)
}

// CompareOnIndex orders two records on index with the primary key as tiebreaker.
func CompareOnIndex(a, b *Record, index int) int {
	if c := bytes.Compare(a.Key(index), b.Key(index)); c != 0 || index == 0 {
		return c
	}
	return bytes.Compare(a.PrimaryKey(), b.PrimaryKey())
}

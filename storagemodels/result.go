/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "bytes"

// FetchResult is one page of models plus an optional continuation token.
type FetchResult[T any] struct {
	Items []T `json:"items"`
	// Token is empty when no further page exists.
	Token string `json:"token,omitempty"`
}

// HasMore reports whether a continuation token was issued.
func (r FetchResult[T]) HasMore() bool {
	return r.Token != ""
}

// Position identifies a record on one ordered index of a store.
// Key is the record's key on that index; Pk is the primary key, which
// breaks ties between equal secondary keys. For the primary index Key and
// Pk are equal.
type Position struct {
	Index int    `json:"index"`
	Key   []byte `json:"key"`
	Pk    []byte `json:"pk,omitempty"`
}

// Equal reports whether two positions denote the same record slot.
func (p Position) Equal(o Position) bool {
	return p.Index == o.Index && bytes.Equal(p.Key, o.Key) && bytes.Equal(p.Pk, o.Pk)
}

// PaginationTokenInfo is the resume state stored behind a continuation
// token. Exactly one resume mode is populated: NextPage (cached strategy)
// or Position (indexed strategy).
type PaginationTokenInfo struct {
	// Store names the engine that minted the token.
	Store string `json:"store"`
	// Strategy is the strategy name that minted the token.
	Strategy string `json:"strategy"`

	PageSize   int          `json:"pageSize"`
	FilterName string       `json:"filter,omitempty"`
	OrderBy    []SortClause `json:"orderBy,omitempty"`
	Index      int          `json:"index"`

	NextPage int       `json:"nextPage,omitempty"`
	Position *Position `json:"position,omitempty"`

	// Predicate carries an in-process filter. It is never serialized.
	Predicate any `json:"-"`
}

// ResumeModeValid reports whether exactly one resume mode is populated.
func (i PaginationTokenInfo) ResumeModeValid() bool {
	return (i.NextPage > 0) != (i.Position != nil)
}

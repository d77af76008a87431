/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

// Mapper is the mapping capability injected into the engines. It converts
// between stored records and models of type T keyed by K.
type Mapper[T any, K comparable] interface {
	// DecodeRecord maps a stored record onto a new model. token is the
	// record's fingerprint and becomes the model's concurrency token.
	DecodeRecord(rec *Record, token string) (T, error)

	// EncodeModel writes the model's fields, keys included, into rec.
	EncodeModel(model T, rec *Record) error

	// EncodeKey writes the primary key pk into rec.
	EncodeKey(pk K, rec *Record) error

	// Key returns the model's primary key.
	Key(model T) K

	// Token returns the model's concurrency token.
	Token(model T) string
}

// MapperFuncs adapts plain functions to the Mapper interface.
type MapperFuncs[T any, K comparable] struct {
	Decode   func(rec *Record, token string) (T, error)
	Encode   func(model T, rec *Record) error
	EncodePk func(pk K, rec *Record) error
	KeyOf    func(model T) K
	TokenOf  func(model T) string
}

func (m MapperFuncs[T, K]) DecodeRecord(rec *Record, token string) (T, error) {
	return m.Decode(rec, token)
}

func (m MapperFuncs[T, K]) EncodeModel(model T, rec *Record) error {
	return m.Encode(model, rec)
}

func (m MapperFuncs[T, K]) EncodeKey(pk K, rec *Record) error {
	return m.EncodePk(pk, rec)
}

func (m MapperFuncs[T, K]) Key(model T) K {
	return m.KeyOf(model)
}

func (m MapperFuncs[T, K]) Token(model T) string {
	return m.TokenOf(model)
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a registered item or record is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when inserting a record whose key is taken
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when a required argument is missing or malformed
	ErrInvalidInput = errors.New("invalid input")

	// ErrConcurrency is returned when an optimistic concurrency check fails
	ErrConcurrency = errors.New("concurrency conflict")

	// ErrInvalidToken is returned when a continuation token cannot be redeemed
	ErrInvalidToken = errors.New("invalid continuation token")

	// ErrMapping is returned when a record cannot be mapped to a model
	ErrMapping = errors.New("record mapping failed")

	// ErrStore is returned when the underlying record store fails
	ErrStore = errors.New("record store failure")

	// ErrRecordLocked is returned when a record is locked by another handle
	ErrRecordLocked = errors.New("record is locked")

	// ErrReadOnly is returned when a write is attempted through a read-only handle
	ErrReadOnly = errors.New("store handle is read-only")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ArgumentError represents a missing, empty or malformed argument.
// It is never retried.
type ArgumentError struct {
	Param   string
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("invalid argument %q: %s", e.Param, e.Message)
	}
	return fmt.Sprintf("invalid argument: %s", e.Message)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConcurrencyError represents a failed optimistic concurrency check.
// Reason is usually "changed concurrently" or "deleted concurrently".
type ConcurrencyError struct {
	Operation string
	Key       string
	Reason    string
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("%s of record %q failed: %s", e.Operation, e.Key, e.Reason)
}

func (e *ConcurrencyError) Is(target error) bool {
	return target == ErrConcurrency
}

// InvalidTokenError represents an unknown, expired, consumed or foreign
// continuation token. It is distinct from "no more pages".
type InvalidTokenError struct {
	Reason string
}

func (e *InvalidTokenError) Error() string {
	if e.Reason == "" {
		return ErrInvalidToken.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidToken.Error(), e.Reason)
}

func (e *InvalidTokenError) Is(target error) bool {
	return target == ErrInvalidToken
}

// MappingError represents a record that could not be mapped to a model.
// Full-extent scans count and skip these instead of failing.
type MappingError struct {
	Store string
	Key   string
	Err   error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("store %s: record %q: %v", e.Store, e.Key, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

func (e *MappingError) Is(target error) bool {
	return target == ErrMapping
}

// StoreError wraps an I/O failure of the record store with operation context.
type StoreError struct {
	Op    string
	Store string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Store == "" {
		return fmt.Sprintf("recordstore: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("recordstore %s: %s: %v", e.Store, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewArgumentError creates a new ArgumentError
func NewArgumentError(param, message string) error {
	return &ArgumentError{Param: param, Message: message}
}

// NewConcurrencyError creates a new ConcurrencyError
func NewConcurrencyError(operation, key, reason string) error {
	return &ConcurrencyError{Operation: operation, Key: key, Reason: reason}
}

// NewInvalidTokenError creates a new InvalidTokenError
func NewInvalidTokenError(reason string) error {
	return &InvalidTokenError{Reason: reason}
}

// NewMappingError creates a new MappingError
func NewMappingError(store, key string, err error) error {
	return &MappingError{Store: store, Key: key, Err: err}
}

// WrapStoreError wraps err with store operation context. A nil err stays nil,
// and errors that already carry a semantic kind are returned unchanged.
func WrapStoreError(store, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStore) || errors.Is(err, ErrConcurrency) ||
		errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrInvalidInput) {
		return err
	}
	return &StoreError{Op: op, Store: store, Err: err}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsArgumentError checks if an error is an argument error
func IsArgumentError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConcurrency checks if an error is a concurrency error
func IsConcurrency(err error) bool {
	return errors.Is(err, ErrConcurrency)
}

// IsInvalidToken checks if an error is an invalid token error
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

// IsMapping checks if an error is a mapping error
func IsMapping(err error) bool {
	return errors.Is(err, ErrMapping)
}

// IsStoreError checks if an error is a record store failure
func IsStoreError(err error) bool {
	return errors.Is(err, ErrStore)
}

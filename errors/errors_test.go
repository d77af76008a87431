/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("Repository", "ratings")

	expected := `Repository with key "ratings" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}

	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("record", "ABC")

	expected := `record with key "ABC" already exists`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsAlreadyExists(err) {
		t.Error("IsAlreadyExists should return true for AlreadyExistsError")
	}
}

func TestArgumentError(t *testing.T) {
	tests := []struct {
		name     string
		param    string
		message  string
		expected string
	}{
		{
			name:     "with param",
			param:    "pks",
			message:  "at least one key is required",
			expected: `invalid argument "pks": at least one key is required`,
		},
		{
			name:     "without param",
			param:    "",
			message:  "model is nil",
			expected: "invalid argument: model is nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewArgumentError(tt.param, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !errors.Is(err, ErrInvalidInput) {
				t.Error("ArgumentError should match ErrInvalidInput")
			}

			if !IsArgumentError(err) {
				t.Error("IsArgumentError should return true for ArgumentError")
			}
		})
	}
}

func TestConcurrencyError(t *testing.T) {
	err := NewConcurrencyError("update", "42", "changed concurrently")

	expected := `update of record "42" failed: changed concurrently`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsConcurrency(err) {
		t.Error("IsConcurrency should return true for ConcurrencyError")
	}
}

func TestInvalidTokenError(t *testing.T) {
	err := NewInvalidTokenError("unknown, expired or already used")

	expected := "invalid continuation token: unknown, expired or already used"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if !IsInvalidToken(err) {
		t.Error("IsInvalidToken should return true for InvalidTokenError")
	}

	bare := NewInvalidTokenError("")
	if bare.Error() != ErrInvalidToken.Error() {
		t.Errorf("Expected bare message %q, got %q", ErrInvalidToken.Error(), bare.Error())
	}
}

func TestMappingError(t *testing.T) {
	cause := fmt.Errorf("unexpected end of JSON input")
	err := NewMappingError("ratings", "7", cause)

	if !IsMapping(err) {
		t.Error("IsMapping should return true for MappingError")
	}
	if !errors.Is(err, cause) {
		t.Error("MappingError should unwrap to its cause")
	}
}

func TestWrapStoreError(t *testing.T) {
	t.Run("NilStaysNil", func(t *testing.T) {
		if WrapStoreError("ratings", "read", nil) != nil {
			t.Error("Wrapping nil should return nil")
		}
	})

	t.Run("WrapsIOFailure", func(t *testing.T) {
		err := WrapStoreError("ratings", "read_next", io.ErrUnexpectedEOF)

		expected := "recordstore ratings: read_next: unexpected EOF"
		if err.Error() != expected {
			t.Errorf("Expected error message %q, got %q", expected, err.Error())
		}
		if !IsStoreError(err) {
			t.Error("IsStoreError should return true for wrapped failures")
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Error("StoreError should unwrap to the original failure")
		}
	})

	t.Run("KeepsSemanticKinds", func(t *testing.T) {
		conflict := NewConcurrencyError("delete", "1", "changed concurrently")
		if got := WrapStoreError("ratings", "delete", conflict); got != conflict {
			t.Errorf("Expected concurrency error to pass through, got %v", got)
		}

		locked := &StoreError{Op: "read_lock", Err: ErrRecordLocked}
		if got := WrapStoreError("ratings", "update", locked); got != locked {
			t.Errorf("Expected store error to pass through, got %v", got)
		}
		if !errors.Is(locked, ErrRecordLocked) {
			t.Error("StoreError should match the wrapped ErrRecordLocked")
		}
	})
}

func TestErrorWrapping(t *testing.T) {
	original := NewConcurrencyError("update", "1", "deleted concurrently")
	wrapped := fmt.Errorf("save rating: %w", original)

	if !errors.Is(wrapped, ErrConcurrency) {
		t.Error("Wrapped ConcurrencyError should still match ErrConcurrency")
	}

	var ce *ConcurrencyError
	if !errors.As(wrapped, &ce) || ce.Reason != "deleted concurrently" {
		t.Errorf("errors.As should recover the ConcurrencyError, got %+v", ce)
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrConcurrency,
		ErrInvalidToken,
		ErrMapping,
		ErrStore,
		ErrRecordLocked,
		ErrReadOnly,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}

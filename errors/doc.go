/*
Package errors provides semantic error types for the record engine.

Every failure the engine surfaces belongs to one kind, checked with the
standard errors.Is() function or the provided helper functions:

	var (
	    ErrInvalidInput = errors.New("invalid input")              // ArgumentError
	    ErrConcurrency  = errors.New("concurrency conflict")       // ConcurrencyError
	    ErrInvalidToken = errors.New("invalid continuation token") // InvalidTokenError
	    ErrMapping      = errors.New("record mapping failed")      // MappingError (soft)
	    ErrStore        = errors.New("record store failure")       // StoreError
	)

Usage:

	updated, err := repo.Update(ctx, rating)
	if err != nil {
	    if errors.IsConcurrency(err) {
	        // reload the record and let the user re-apply the change
	    }
	    return err
	}

	// Create typed errors
	err := errors.NewArgumentError("pks", "at least one key is required")
	err := errors.NewConcurrencyError("update", "42", "changed concurrently")

Argument and concurrency errors are never retried by the engine. Store
failures are wrapped with StoreError so the failing operation is visible,
and the original error stays reachable through errors.Unwrap.
*/
package errors

/*
Package mutation writes models to a record store under optimistic
concurrency control.

Every model read through the query package carries a concurrency token,
the content fingerprint of the record it was decoded from. Update and
Delete lock the stored record, compare its current fingerprint with the
token and write only on a match:

	stored, err := engine.Update(ctx, model)
	if errors.IsConcurrency(err) {
	    // reload, reapply, resubmit
	}

Insert needs no token. Deleting an absent record is a no-op. Nothing is
retried internally.
*/
package mutation

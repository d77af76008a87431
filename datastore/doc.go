/*
Package datastore defines the record store contract the engines run against.

A RecordStore is an ordered, indexed collection of Records. The engines
only ever talk to it through short-lived Handles:

	type Handle interface {
	    Start(ctx, index, from, mode) (bool, error)   // position a cursor
	    ReadNext(ctx) (*Record, error)                // nil at end of extent
	    Read(ctx, key) (*Record, error)               // keyed lookup
	    ReadLock(ctx, key) (*Record, error)           // keyed lookup + exclusive lock
	    Write / Rewrite / Delete(ctx, rec) error
	    NewRecord() *Record
	    Close() error
	}

The mapping between Records and application models is supplied by the
caller as a Mapper[T, K]; the engines never inspect record content
themselves. Fingerprint derives the concurrency token of a record from its
raw content.

Implementations:
  - mock: in-memory store for tests, with scan counters and error injection
  - sqlite: modernc.org/sqlite backed store
  - ddb: DynamoDB backed store using a single-table layout
*/
package datastore

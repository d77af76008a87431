/*
Package ddb provides a DynamoDB implementation of the datastore.RecordStore interface.

The Store supports:
  - Single-table design: one partition per store, records keyed REC#<hex(pk)>
  - Secondary ordered indices backed by GSIs (GSI1 -> PK1/SK1, ...)
  - Paged cursors that follow LastEvaluatedKey, with retry on throttling
  - Conditional writes for optimistic locking
  - A per-store version item used as the freshness marker

Table layout:

	PK            SK          Keys        Data  Rev  PK1           SK1
	STORE#users   REC#616c69  616c69,6e6c  ...   3    STORE#users   6e6c#616c69
	META#users    META        (Version = modification counter)

The table needs PK/SK string keys, and one GSI per secondary index with ALL
projection. Secondary index reads are eventually consistent.

Locking is optimistic. ReadLock records the revision of the record and
Rewrite/Delete are conditional on it; a lost race surfaces as a
ConcurrencyError from the write instead of blocking other handles.
*/
package ddb

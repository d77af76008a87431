/*
Package token issues and redeems continuation tokens.

A token is an opaque identifier for a PaginationTokenInfo kept on the
server side. Tokens are single use and expire after DefaultTTL (15
minutes) unless configured otherwise. Redeeming an unknown, expired or
already redeemed token reports "absent"; the query engine turns that into
an InvalidTokenError.

Two stores are provided:
  - MemoryStore: process-local, random UUID identifiers, can carry
    in-process filter predicates
  - SQLiteStore: durable, ULID identifiers with crypto/rand entropy,
    requires named filters
*/
package token

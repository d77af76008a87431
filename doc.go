/*
Package recordengine provides a generic query and mutation layer over
ordered, indexed record stores.

Application models never touch store records directly. A Mapper translates
between the two, and a Repository offers:
  - filtered, sorted and paginated reads with single-use continuation tokens
  - point and multi-key lookups
  - inserts, and updates and deletes guarded by optimistic concurrency

Reads run one of two strategies. The cached strategy materializes the whole
store once per change, shared across callers through a single-flight cache,
and supports arbitrary multi-field ordering. The indexed strategy streams
one of the store's native indices and stops as soon as a page is full.

Every model read carries a concurrency token, the fingerprint of its stored
record. Update and Delete succeed only while the record still has that
fingerprint; otherwise they fail with a ConcurrencyError and the caller
reloads and retries.

Record stores are available for SQLite (datastore/sqlite), DynamoDB
(datastore/ddb) and in memory for tests (datastore/mock).

Basic Usage:

	rt, err := recordengine.NewRuntime(ctx, cfg)
	defer rt.Close()

	store, err := rt.OpenSQLiteStore(ctx, "ratings", 2)
	repo, err := recordengine.NewRepository[Model, string](rt, store, mapper,
	    recordengine.WithFields(fields))

	stored, err := repo.Insert(ctx, model)

	var order storagemodels.OrderByInfo
	_ = order.AddDescending("Players")
	page, err := repo.Fetch(ctx, &storagemodels.FetchCriteria[Model]{PageSize: 20, OrderBy: order})
	if page.HasMore() {
	    page, err = repo.FetchNext(ctx, page.Token)
	}

	stored.Players++
	stored, err = repo.Update(ctx, stored)
*/
package recordengine

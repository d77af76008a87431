/*
Package query evaluates fetch criteria against a record store.

An Engine is generic over the model type T and its primary key type K and
is bound to one store and one Mapper. It runs one of two strategies,
chosen once at construction:

	Cached   loads the full extent through the cache package, filters and
	         stably sorts it in memory, then slices pages. Tokens carry the
	         next page number and the criteria are reapplied on redemption.
	Indexed  streams one of the store's ordered indices, filtering in
	         process, and stops as soon as a page is full. Tokens carry the
	         position of the last record returned. OrderBy is rejected.

Usage:

	engine, err := query.New(store, mapper,
	    query.WithStrategy(query.Cached),
	    query.WithFields(fields),
	)

	var order storagemodels.OrderByInfo
	_ = order.AddDescending("Players")

	page, err := engine.Fetch(ctx, &storagemodels.FetchCriteria[Model]{
	    PageSize: 20,
	    OrderBy:  order,
	})
	for page.HasMore() {
	    page, err = engine.FetchNext(ctx, page.Token)
	}

Continuation tokens are single use. Redeeming an unknown, expired, spent
or foreign token returns an InvalidTokenError; the last page simply has
no token.
*/
package query

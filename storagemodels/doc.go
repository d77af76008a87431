/*
Package storagemodels defines the data structures used throughout the record engine.

Key Types:

FetchCriteria:
Shape of a fetch request over models of type T:

	var order storagemodels.OrderByInfo
	_ = order.AddDescending("CreatedAt")
	_ = order.AddAscending("Name")

	criteria := &storagemodels.FetchCriteria[Rating]{
	    PageSize: 25,
	    Filter:   func(r Rating) bool { return r.Active },
	    OrderBy:  order,
	}

FetchResult:
One page of models and the continuation token for the next one:

	type FetchResult[T any] struct {
	    Items []T
	    Token string // empty when no further page exists
	}

PaginationTokenInfo:
The resume state kept by a token store. It holds the original criteria and
either the next page number (cached strategy) or the last-read Position
(indexed strategy).

These types are shared by every record store implementation.
*/
package storagemodels

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"strings"

	"github.com/suparena/recordengine/errors"
)

// Direction is the sort direction of one OrderBy clause.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortClause orders by a single model field.
type SortClause struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// OrderByInfo is an ordered list of sort clauses. The first clause is the
// primary key of the sort; later clauses break ties in list order.
// The zero value requests no ordering.
type OrderByInfo struct {
	clauses []SortClause
}

// NewOrderBy builds an OrderByInfo from existing clauses, validating each one.
func NewOrderBy(clauses ...SortClause) (OrderByInfo, error) {
	var o OrderByInfo
	for _, c := range clauses {
		if err := o.add(c.Field, c.Direction); err != nil {
			return OrderByInfo{}, err
		}
	}
	return o, nil
}

// AddAscending appends an ascending clause on field.
func (o *OrderByInfo) AddAscending(field string) error {
	return o.add(field, Ascending)
}

// AddDescending appends a descending clause on field.
func (o *OrderByInfo) AddDescending(field string) error {
	return o.add(field, Descending)
}

func (o *OrderByInfo) add(field string, dir Direction) error {
	if strings.TrimSpace(field) == "" {
		return errors.NewArgumentError("field", "sort field name is required")
	}
	if dir != Ascending && dir != Descending {
		return errors.NewArgumentError("direction", "unknown sort direction")
	}
	o.clauses = append(o.clauses, SortClause{Field: field, Direction: dir})
	return nil
}

// HasOrder reports whether at least one clause was added.
func (o OrderByInfo) HasOrder() bool {
	return len(o.clauses) > 0
}

// Clauses returns a copy of the sort clauses in priority order.
func (o OrderByInfo) Clauses() []SortClause {
	if len(o.clauses) == 0 {
		return nil
	}
	out := make([]SortClause, len(o.clauses))
	copy(out, o.clauses)
	return out
}

// String renders the ordering as "field asc, other desc".
func (o OrderByInfo) String() string {
	parts := make([]string, len(o.clauses))
	for i, c := range o.clauses {
		parts[i] = c.Field + " " + c.Direction.String()
	}
	return strings.Join(parts, ", ")
}

// FetchCriteria describes a fetch request over models of type T.
type FetchCriteria[T any] struct {
	// PageSize limits the items per page. Zero means unlimited.
	PageSize int
	// Filter is evaluated in-process against each materialized model.
	// A nil Filter matches everything.
	Filter func(T) bool
	// FilterName refers to a filter registered with the registry package.
	// Named filters can be persisted by durable token stores; Filter cannot.
	FilterName string
	// OrderBy requests a stable multi-key sort. Only the cached strategy
	// supports it.
	OrderBy OrderByInfo
	// Index selects the store index walked by the indexed strategy.
	// Zero is the primary index.
	Index int
}

// Validate checks the caller-supplied shape of the criteria.
func (c *FetchCriteria[T]) Validate() error {
	if c.PageSize < 0 {
		return errors.NewArgumentError("PageSize", "must not be negative")
	}
	if c.Index < 0 {
		return errors.NewArgumentError("Index", "must not be negative")
	}
	if c.Filter != nil && c.FilterName != "" {
		return errors.NewArgumentError("Filter", "set either Filter or FilterName, not both")
	}
	return nil
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sort"
	"strings"
	"sync"
)

// FieldComparator orders two models on one field: negative, zero or
// positive like strings.Compare.
type FieldComparator[T any] func(a, b T) int

// FieldSet maps sortable field names of T to their comparators.
type FieldSet[T any] map[string]FieldComparator[T]

// Lookup finds a field by exact name, then case-insensitively.
func (f FieldSet[T]) Lookup(name string) (FieldComparator[T], bool) {
	if cmp, ok := f[name]; ok {
		return cmp, true
	}
	for n, cmp := range f {
		if strings.EqualFold(n, name) {
			return cmp, true
		}
	}
	return nil, false
}

// Names returns the field names in sorted order.
func (f FieldSet[T]) Names() []string {
	names := make([]string, 0, len(f))
	for n := range f {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var (
	fieldRegistry = make(map[reflect.Type]any)
	fieldMu       sync.RWMutex
)

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// RegisterFields associates a Go type T with its field table. A later
// registration for the same type replaces the earlier one.
func RegisterFields[T any](fields FieldSet[T]) {
	fieldMu.Lock()
	defer fieldMu.Unlock()
	fieldRegistry[typeOf[T]()] = fields
}

// GetFields retrieves the field table for type T, if any.
func GetFields[T any]() (FieldSet[T], bool) {
	fieldMu.RLock()
	defer fieldMu.RUnlock()
	f, ok := fieldRegistry[typeOf[T]()]
	if !ok {
		return nil, false
	}
	return f.(FieldSet[T]), true
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"cmp"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/suparena/recordengine/registry"
)

// StringField compares a string field ordinally.
func StringField[T any](get func(T) string) registry.FieldComparator[T] {
	return func(a, b T) int { return strings.Compare(get(a), get(b)) }
}

// OrderedField compares any ordered field by its natural order.
func OrderedField[T any, V cmp.Ordered](get func(T) V) registry.FieldComparator[T] {
	return func(a, b T) int { return cmp.Compare(get(a), get(b)) }
}

// TimeField compares a time field chronologically.
func TimeField[T any](get func(T) time.Time) registry.FieldComparator[T] {
	return func(a, b T) int { return get(a).Compare(get(b)) }
}

// CollatedField compares a string field by the collation rules of tag,
// for example case-insensitive dictionary order for language.English.
// A collator is not safe for concurrent use, so comparisons are
// serialized.
func CollatedField[T any](tag language.Tag, get func(T) string, opts ...collate.Option) registry.FieldComparator[T] {
	c := collate.New(tag, opts...)
	var mu sync.Mutex
	return func(a, b T) int {
		mu.Lock()
		defer mu.Unlock()
		return c.CompareString(get(a), get(b))
	}
}

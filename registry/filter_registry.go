/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/suparena/recordengine/errors"
)

// FilterFactory builds a predicate from the argument of a parameterised
// filter name such as "category:chess".
type FilterFactory[T any] func(arg string) (func(T) bool, error)

type filterKey struct {
	typ  reflect.Type
	name string
}

var (
	filterRegistry  = make(map[filterKey]any)
	factoryRegistry = make(map[filterKey]any)
	filterMu        sync.RWMutex
)

// RegisterFilter registers a named predicate for T. Named filters can be
// carried by durable continuation tokens, in-process predicates cannot.
// If a filter is already registered under the name, it panics to prevent
// accidental overrides.
func RegisterFilter[T any](name string, fn func(T) bool) {
	if name == "" || strings.Contains(name, ":") {
		panic(fmt.Sprintf("filter registry: invalid filter name %q", name))
	}
	key := filterKey{typeOf[T](), name}

	filterMu.Lock()
	defer filterMu.Unlock()
	if _, exists := filterRegistry[key]; exists {
		panic(fmt.Sprintf("filter registry: filter %q already registered for %v", name, key.typ))
	}
	filterRegistry[key] = fn
}

// RegisterFilterFactory registers a factory for filter names of the form
// "prefix:arg". It panics on duplicate prefixes.
func RegisterFilterFactory[T any](prefix string, factory FilterFactory[T]) {
	if prefix == "" || strings.Contains(prefix, ":") {
		panic(fmt.Sprintf("filter registry: invalid factory prefix %q", prefix))
	}
	key := filterKey{typeOf[T](), prefix}

	filterMu.Lock()
	defer filterMu.Unlock()
	if _, exists := factoryRegistry[key]; exists {
		panic(fmt.Sprintf("filter registry: factory %q already registered for %v", prefix, key.typ))
	}
	factoryRegistry[key] = factory
}

// GetFilter resolves a filter name for T: exact names first, then
// "prefix:arg" through a registered factory.
func GetFilter[T any](name string) (func(T) bool, error) {
	typ := typeOf[T]()

	filterMu.RLock()
	fn, ok := filterRegistry[filterKey{typ, name}]
	var factory any
	var arg string
	if !ok {
		if prefix, a, found := strings.Cut(name, ":"); found {
			factory, ok = factoryRegistry[filterKey{typ, prefix}]
			arg = a
		}
	}
	filterMu.RUnlock()

	if fn != nil {
		return fn.(func(T) bool), nil
	}
	if factory != nil {
		pred, err := factory.(FilterFactory[T])(arg)
		if err != nil {
			return nil, errors.NewArgumentError("filter", fmt.Sprintf("%s: %v", name, err))
		}
		return pred, nil
	}
	return nil, errors.NewNotFoundError("filter", name)
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordengine

import (
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/recordengine/errors"
)

// TypedRepositories holds the repositories of one model type, by name.
type TypedRepositories[T any, K comparable] struct {
	mu    sync.RWMutex
	repos map[string]*Repository[T, K]
}

// NewTypedRepositories creates an empty TypedRepositories
func NewTypedRepositories[T any, K comparable]() *TypedRepositories[T, K] {
	return &TypedRepositories[T, K]{
		repos: make(map[string]*Repository[T, K]),
	}
}

// Register adds a repository under key
func (tr *TypedRepositories[T, K]) Register(key string, repo *Repository[T, K]) error {
	if repo == nil {
		return errors.NewArgumentError("repo", "is nil")
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, exists := tr.repos[key]; exists {
		return errors.NewAlreadyExistsError("repository", key)
	}
	tr.repos[key] = repo
	return nil
}

// Get retrieves a repository by key
func (tr *TypedRepositories[T, K]) Get(key string) (*Repository[T, K], error) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	repo, exists := tr.repos[key]
	if !exists {
		return nil, errors.NewNotFoundError("repository", key)
	}
	return repo, nil
}

// Remove deletes a repository by key
func (tr *TypedRepositories[T, K]) Remove(key string) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, exists := tr.repos[key]; !exists {
		return errors.NewNotFoundError("repository", key)
	}
	delete(tr.repos, key)
	return nil
}

// List returns the registered keys in sorted order
func (tr *TypedRepositories[T, K]) List() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	keys := make([]string, 0, len(tr.repos))
	for k := range tr.repos {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type typeKey struct {
	model reflect.Type
	pk    reflect.Type
}

// MultiTypeRepositories manages TypedRepositories for different model types
type MultiTypeRepositories struct {
	mu    sync.Mutex
	typed map[typeKey]any
}

// NewMultiTypeRepositories creates an empty MultiTypeRepositories
func NewMultiTypeRepositories() *MultiTypeRepositories {
	return &MultiTypeRepositories{
		typed: make(map[typeKey]any),
	}
}

// GetTypedRepositories returns the TypedRepositories for T keyed by K,
// creating it if necessary
func GetTypedRepositories[T any, K comparable](m *MultiTypeRepositories) *TypedRepositories[T, K] {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := typeKey{
		model: reflect.TypeOf((*T)(nil)).Elem(),
		pk:    reflect.TypeOf((*K)(nil)).Elem(),
	}
	if tr, exists := m.typed[key]; exists {
		return tr.(*TypedRepositories[T, K])
	}
	tr := NewTypedRepositories[T, K]()
	m.typed[key] = tr
	return tr
}

// RegisterRepository registers repo under key for its model type
func RegisterRepository[T any, K comparable](m *MultiTypeRepositories, key string, repo *Repository[T, K]) error {
	return GetTypedRepositories[T, K](m).Register(key, repo)
}

// GetRepository retrieves the repository of model type T registered under key
func GetRepository[T any, K comparable](m *MultiTypeRepositories, key string) (*Repository[T, K], error) {
	return GetTypedRepositories[T, K](m).Get(key)
}

// RemoveRepository removes the repository of model type T registered under key
func RemoveRepository[T any, K comparable](m *MultiTypeRepositories, key string) error {
	return GetTypedRepositories[T, K](m).Remove(key)
}

// ListRepositories lists the keys registered for model type T
func ListRepositories[T any, K comparable](m *MultiTypeRepositories) []string {
	return GetTypedRepositories[T, K](m).List()
}

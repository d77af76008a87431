/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordengine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/datastore/mock"
	"github.com/suparena/recordengine/datastore/testmodels"
	"github.com/suparena/recordengine/errors"
)

// Test types
type TestUser struct {
	ID    string
	Name  string
	Email string
}

var testUserMapper = datastore.MapperFuncs[TestUser, string]{
	Decode: func(rec *datastore.Record, token string) (TestUser, error) {
		var u TestUser
		err := json.Unmarshal(rec.Data, &u)
		return u, err
	},
	Encode: func(u TestUser, rec *datastore.Record) error {
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		rec.SetKey(0, []byte(u.ID))
		rec.Data = data
		return nil
	},
	EncodePk: func(pk string, rec *datastore.Record) error {
		rec.SetKey(0, []byte(pk))
		return nil
	},
	KeyOf:   func(u TestUser) string { return u.ID },
	TokenOf: func(TestUser) string { return "" },
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := NewRuntime(context.Background(), nil, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

func newUserRepo(t *testing.T, rt *Runtime, name string) *Repository[TestUser, string] {
	t.Helper()
	repo, err := NewRepository[TestUser, string](rt, mock.New(name, 1), testUserMapper)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	return repo
}

func newRatingRepo(t *testing.T, rt *Runtime, name string) *Repository[testmodels.RatingSystem, string] {
	t.Helper()
	repo, err := NewRepository[testmodels.RatingSystem, string](rt, mock.New(name, testmodels.RatingSystemIndexes), testmodels.RatingSystemMapper)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	return repo
}

func TestTypedRepositories(t *testing.T) {
	rt := newTestRuntime(t)

	t.Run("BasicOperations", func(t *testing.T) {
		repos := NewTypedRepositories[TestUser, string]()

		err := repos.Register("users", newUserRepo(t, rt, "users"))
		if err != nil {
			t.Fatalf("Failed to register: %v", err)
		}

		retrieved, err := repos.Get("users")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if retrieved.Name() != "users" {
			t.Fatalf("Expected repository over users, got %s", retrieved.Name())
		}

		keys := repos.List()
		if len(keys) != 1 || keys[0] != "users" {
			t.Fatalf("Expected [users], got %v", keys)
		}

		if err := repos.Remove("users"); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}

		_, err = repos.Get("users")
		if !errors.IsNotFound(err) {
			t.Fatalf("Expected not found after removal, got %v", err)
		}
		if err := repos.Remove("users"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found removing twice, got %v", err)
		}
	})

	t.Run("DuplicateRegistration", func(t *testing.T) {
		repos := NewTypedRepositories[TestUser, string]()

		if err := repos.Register("users", newUserRepo(t, rt, "users")); err != nil {
			t.Fatalf("First registration failed: %v", err)
		}
		err := repos.Register("users", newUserRepo(t, rt, "users2"))
		if !errors.IsAlreadyExists(err) {
			t.Fatalf("Expected duplicate registration error, got %v", err)
		}
	})

	t.Run("NilRepository", func(t *testing.T) {
		repos := NewTypedRepositories[TestUser, string]()
		if err := repos.Register("users", nil); !errors.IsArgumentError(err) {
			t.Fatalf("Expected argument error, got %v", err)
		}
	})
}

func TestMultiTypeRepositories(t *testing.T) {
	rt := newTestRuntime(t)
	m := NewMultiTypeRepositories()

	t.Run("DifferentTypes", func(t *testing.T) {
		if err := RegisterRepository(m, "users", newUserRepo(t, rt, "users")); err != nil {
			t.Fatalf("Failed to register user repository: %v", err)
		}
		if err := RegisterRepository(m, "ratings", newRatingRepo(t, rt, "ratings")); err != nil {
			t.Fatalf("Failed to register rating repository: %v", err)
		}

		if _, err := GetRepository[TestUser, string](m, "users"); err != nil {
			t.Fatalf("Failed to get user repository: %v", err)
		}
		if _, err := GetRepository[testmodels.RatingSystem, string](m, "ratings"); err != nil {
			t.Fatalf("Failed to get rating repository: %v", err)
		}
		if _, err := GetRepository[TestUser, string](m, "ratings"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found across types, got %v", err)
		}

		userKeys := ListRepositories[TestUser, string](m)
		if len(userKeys) != 1 || userKeys[0] != "users" {
			t.Fatalf("Expected user keys [users], got %v", userKeys)
		}
	})

	t.Run("SameKeyDifferentTypes", func(t *testing.T) {
		if err := RegisterRepository(m, "items", newUserRepo(t, rt, "user-items")); err != nil {
			t.Fatalf("Failed to register user repository: %v", err)
		}
		if err := RegisterRepository(m, "items", newRatingRepo(t, rt, "rating-items")); err != nil {
			t.Fatalf("Failed to register rating repository: %v", err)
		}

		users, err := GetRepository[TestUser, string](m, "items")
		if err != nil || users.Name() != "user-items" {
			t.Fatalf("Failed to get user items: %v", err)
		}
		ratings, err := GetRepository[testmodels.RatingSystem, string](m, "items")
		if err != nil || ratings.Name() != "rating-items" {
			t.Fatalf("Failed to get rating items: %v", err)
		}

		if err := RemoveRepository[TestUser, string](m, "items"); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}
		if _, err := GetRepository[testmodels.RatingSystem, string](m, "items"); err != nil {
			t.Fatalf("Removing one type must not affect another: %v", err)
		}
	})
}

func TestThreadSafety(t *testing.T) {
	rt := newTestRuntime(t)
	m := NewMultiTypeRepositories()
	done := make(chan bool)

	repos := make([]*Repository[TestUser, string], 10)
	for i := range repos {
		repos[i] = newUserRepo(t, rt, fmt.Sprintf("store%d", i))
	}

	// Concurrent writes
	for i := 0; i < 10; i++ {
		go func(id int) {
			RegisterRepository(m, fmt.Sprintf("store%d", id), repos[id])
			done <- true
		}(i)
	}

	// Concurrent reads
	for i := 0; i < 10; i++ {
		go func() {
			ListRepositories[TestUser, string](m)
			done <- true
		}()
	}

	for i := 0; i < 20; i++ {
		<-done
	}

	keys := ListRepositories[TestUser, string](m)
	if len(keys) != 10 {
		t.Fatalf("Expected 10 repositories, got %d", len(keys))
	}
}

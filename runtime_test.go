/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordengine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/suparena/recordengine/config"
	"github.com/suparena/recordengine/datastore/mock"
	"github.com/suparena/recordengine/datastore/testmodels"
	"github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/query"
	"github.com/suparena/recordengine/storagemodels"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "engine.db")
	cfg.Tokens.Backend = config.TokenBackendSQLite
	return &cfg
}

func quiet() RuntimeOption {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewRuntime(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		rt, err := NewRuntime(ctx, nil, quiet())
		if err != nil {
			t.Fatalf("NewRuntime failed: %v", err)
		}
		defer rt.Close()
		if rt.Strategy() != query.Cached {
			t.Fatalf("Expected cached strategy, got %s", rt.Strategy())
		}
		if rt.Tokens() == nil || rt.Cache() == nil {
			t.Fatal("Expected token store and cache manager")
		}
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Strategy = "fastest"
		_, err := NewRuntime(ctx, &cfg, quiet())
		if !errors.IsArgumentError(err) {
			t.Fatalf("Expected argument error, got %v", err)
		}
	})

	t.Run("StoreRegistry", func(t *testing.T) {
		rt, err := NewRuntime(ctx, nil, quiet())
		if err != nil {
			t.Fatalf("NewRuntime failed: %v", err)
		}
		if err := rt.RegisterStore(mock.New("b", 1)); err != nil {
			t.Fatalf("RegisterStore failed: %v", err)
		}
		if err := rt.RegisterStore(mock.New("a", 1)); err != nil {
			t.Fatalf("RegisterStore failed: %v", err)
		}
		if err := rt.RegisterStore(mock.New("a", 1)); !errors.IsAlreadyExists(err) {
			t.Fatalf("Expected already exists, got %v", err)
		}
		if names := rt.Stores(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
			t.Fatalf("Expected [a b], got %v", names)
		}
		if _, err := rt.Store("c"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found, got %v", err)
		}
	})

	t.Run("DynamoDBNeedsTable", func(t *testing.T) {
		rt, err := NewRuntime(ctx, nil, quiet())
		if err != nil {
			t.Fatalf("NewRuntime failed: %v", err)
		}
		if _, err := rt.OpenDynamoDBStore(ctx, "ratings", 2); !errors.IsArgumentError(err) {
			t.Fatalf("Expected argument error, got %v", err)
		}
	})
}

func TestRepositoryOnSQLite(t *testing.T) {
	ctx := context.Background()
	rt, err := NewRuntime(ctx, sqliteConfig(t), quiet())
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}
	defer rt.Close()

	for _, strategy := range []query.Strategy{query.Cached, query.Indexed} {
		t.Run(strategy.String(), func(t *testing.T) {
			store, err := rt.OpenSQLiteStore(ctx, "ratings_"+strategy.String(), testmodels.RatingSystemIndexes)
			if err != nil {
				t.Fatalf("OpenSQLiteStore failed: %v", err)
			}
			repo, err := NewRepository[testmodels.RatingSystem, string](rt, store, testmodels.RatingSystemMapper,
				WithStrategy(strategy), WithFields(testmodels.RatingSystemFields()))
			if err != nil {
				t.Fatalf("NewRepository failed: %v", err)
			}
			if repo.Strategy() != strategy {
				t.Fatalf("Expected %s, got %s", strategy, repo.Strategy())
			}

			ids := []string{"1", "2", "3"}
			for i, id := range ids {
				if _, err := repo.Insert(ctx, testmodels.NewRatingSystem(id, "System "+id, "chess", i, epoch)); err != nil {
					t.Fatalf("Insert %s failed: %v", id, err)
				}
			}

			page, err := repo.Fetch(ctx, &storagemodels.FetchCriteria[testmodels.RatingSystem]{PageSize: 2})
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if len(page.Items) != 2 || page.Items[0].Key() != ids[0] || page.Items[1].Key() != ids[1] {
				t.Fatalf("Unexpected first page %v", page.Items)
			}
			if !page.HasMore() {
				t.Fatal("Expected a continuation token")
			}
			page, err = repo.FetchNext(ctx, page.Token)
			if err != nil {
				t.Fatalf("FetchNext failed: %v", err)
			}
			if len(page.Items) != 1 || page.Items[0].Key() != ids[2] || page.HasMore() {
				t.Fatalf("Unexpected last page %v (token %q)", page.Items, page.Token)
			}

			got, found, err := repo.GetByPk(ctx, ids[0])
			if err != nil || !found {
				t.Fatalf("GetByPk failed: found=%v err=%v", found, err)
			}
			got.Players = 42
			updated, err := repo.Update(ctx, got)
			if err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			if _, err := repo.Update(ctx, got); !errors.IsConcurrency(err) {
				t.Fatalf("Expected concurrency error for stale token, got %v", err)
			}

			reread, _, err := repo.GetByPk(ctx, ids[0])
			if err != nil {
				t.Fatalf("GetByPk failed: %v", err)
			}
			if reread.Players != 42 || reread.Token != updated.Token {
				t.Fatalf("Expected the updated model, got %+v", reread)
			}

			if err := repo.Delete(ctx, updated); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if err := repo.Delete(ctx, updated); err != nil {
				t.Fatalf("Deleting twice must succeed, got %v", err)
			}
			if _, found, _ := repo.GetByPk(ctx, ids[0]); found {
				t.Fatal("Expected the record to be gone")
			}
		})
	}
}

func TestDurableTokensSurviveRuntime(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)

	rt, err := NewRuntime(ctx, cfg, quiet())
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}
	store, err := rt.OpenSQLiteStore(ctx, "ratings", testmodels.RatingSystemIndexes)
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	repo, err := NewRepository[testmodels.RatingSystem, string](rt, store, testmodels.RatingSystemMapper, WithStrategy(query.Indexed))
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if _, err := repo.Insert(ctx, testmodels.NewRatingSystem(id, id, "go", 1, epoch)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	page, err := repo.Fetch(ctx, &storagemodels.FetchCriteria[testmodels.RatingSystem]{PageSize: 2})
	if err != nil || !page.HasMore() {
		t.Fatalf("Fetch failed: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	rt2, err := NewRuntime(ctx, cfg, quiet())
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}
	defer rt2.Close()
	store2, err := rt2.OpenSQLiteStore(ctx, "ratings", testmodels.RatingSystemIndexes)
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	repo2, err := NewRepository[testmodels.RatingSystem, string](rt2, store2, testmodels.RatingSystemMapper, WithStrategy(query.Indexed))
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	next, err := repo2.FetchNext(ctx, page.Token)
	if err != nil {
		t.Fatalf("FetchNext in a new runtime failed: %v", err)
	}
	if len(next.Items) != 1 || next.Items[0].Key() != "c" {
		t.Fatalf("Expected [c], got %v", next.Items)
	}
}

func TestRepositoryFetchAll(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t)
	repo := newRatingRepo(t, rt, "ratings")
	for _, id := range []string{"x", "y", "z"} {
		if _, err := repo.Insert(ctx, testmodels.NewRatingSystem(id, id, "go", 1, epoch)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	all, err := repo.FetchAll(ctx, &storagemodels.FetchCriteria[testmodels.RatingSystem]{PageSize: 1})
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 models, got %d", len(all))
	}
	repo.Invalidate()
	if stats := rt.Cache().Stats(); stats.Entries != 0 {
		t.Fatalf("Expected no cache entries after Invalidate, got %d", stats.Entries)
	}
}

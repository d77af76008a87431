/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/internal/docmodel"
	"github.com/suparena/recordengine/storagemodels"
)

// run executes one command line against db and returns its stdout.
func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--db", db}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, db string, args ...string) string {
	t.Helper()
	out, err := run(t, db, args...)
	require.NoError(t, err, "%v", args)
	return out
}

func seedDocuments(t *testing.T, db string) {
	t.Helper()
	mustRun(t, db, "put", "a", `{"name":"Elo","category":"chess","players":10}`)
	mustRun(t, db, "put", "b", `{"name":"Glicko","category":"chess","players":25}`)
	mustRun(t, db, "put", "c", `{"name":"Go Ratings","category":"go","players":10}`)
}

func TestFetchSortedGolden(t *testing.T) {
	db := filepath.Join(t.TempDir(), "docs.db")
	seedDocuments(t, db)

	out := mustRun(t, db, "fetch", "--sort", "players:desc", "--sort", "name", "--format", "text")

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "fetch_sorted", []byte(out))
}

func TestFetchAndNextAcrossInvocations(t *testing.T) {
	db := filepath.Join(t.TempDir(), "docs.db")
	seedDocuments(t, db)

	for _, strategy := range []string{"cached", "indexed"} {
		t.Run(strategy, func(t *testing.T) {
			var page storagemodels.FetchResult[docmodel.Document]
			require.NoError(t, json.Unmarshal([]byte(mustRun(t, db, "--strategy", strategy, "fetch", "-n", "2")), &page))
			require.Len(t, page.Items, 2)
			require.NotEmpty(t, page.Token)
			assert.Equal(t, "a", page.Items[0].ID)

			tok := page.Token
			page = storagemodels.FetchResult[docmodel.Document]{}
			require.NoError(t, json.Unmarshal([]byte(mustRun(t, db, "--strategy", strategy, "next", tok)), &page))
			require.Len(t, page.Items, 1)
			assert.Equal(t, "c", page.Items[0].ID)
			assert.Empty(t, page.Token)

			_, err := run(t, db, "--strategy", strategy, "next", tok)
			assert.True(t, errors.IsInvalidToken(err))
		})
	}
}

func TestFetchFilters(t *testing.T) {
	db := filepath.Join(t.TempDir(), "docs.db")
	seedDocuments(t, db)

	out := mustRun(t, db, "fetch", "--where", "category=chess", "-n", "1", "--format", "text")
	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "a\tcategory=chess name=Elo players=10", string(lines[0]))
	assert.True(t, bytes.HasPrefix(lines[1], []byte("next: ")))

	out = mustRun(t, db, "--strategy", "indexed", "fetch", "--index", "1", "--format", "text")
	assert.Equal(t, "a\tcategory=chess name=Elo players=10\n"+
		"b\tcategory=chess name=Glicko players=25\n"+
		"c\tcategory=go name=Go Ratings players=10\n", out)

	_, err := run(t, db, "--strategy", "indexed", "fetch", "--sort", "name")
	assert.True(t, errors.IsArgumentError(err))

	_, err = run(t, db, "fetch", "--sort", "nope")
	assert.True(t, errors.IsArgumentError(err))
}

func TestUpdateAndDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "docs.db")

	var doc docmodel.Document
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, db, "put", "x", `{"name":"X"}`)), &doc))
	require.NotEmpty(t, doc.Token)

	_, err := run(t, db, "put", "x", `{"name":"again"}`)
	assert.True(t, errors.IsAlreadyExists(err))

	var updated docmodel.Document
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, db, "update", "x", `{"name":"Y"}`, "--token", doc.Token)), &updated))
	assert.Equal(t, "Y", updated.Fields["name"])
	assert.NotEqual(t, doc.Token, updated.Token)

	_, err = run(t, db, "update", "x", `{"name":"Z"}`, "--token", doc.Token)
	assert.True(t, errors.IsConcurrency(err))

	_, err = run(t, db, "delete", "x", "--token", doc.Token)
	assert.True(t, errors.IsConcurrency(err))

	assert.Equal(t, "deleted x\n", mustRun(t, db, "delete", "x", "--token", updated.Token))
	assert.Equal(t, "deleted x\n", mustRun(t, db, "delete", "x", "--token", updated.Token))

	_, err = run(t, db, "get", "x")
	assert.True(t, errors.IsNotFound(err))
}

func TestGetMany(t *testing.T) {
	db := filepath.Join(t.TempDir(), "docs.db")
	seedDocuments(t, db)

	var docs []docmodel.Document
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, db, "get", "c", "missing", "a")), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
}

func TestVersion(t *testing.T) {
	out := mustRun(t, filepath.Join(t.TempDir(), "unused.db"), "version")
	assert.Contains(t, out, "recordengine version ")
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docmodel

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/registry"
)

func TestMapperRoundTrip(t *testing.T) {
	m := NewMapper("category")
	rec := datastore.NewRecord(Indexes)
	doc := Document{ID: "d1", Fields: map[string]any{"category": "chess", "players": 12.0}}
	require.NoError(t, m.EncodeModel(doc, rec))
	assert.Equal(t, []byte("d1"), rec.Key(0))
	assert.Equal(t, []byte("chess"), rec.Key(1))

	got, err := m.DecodeRecord(rec, "tok")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, 12.0, got.Fields["players"])

	assert.Error(t, m.EncodeModel(Document{}, datastore.NewRecord(Indexes)))

	bad := datastore.NewRecord(Indexes)
	bad.SetKey(0, []byte("x"))
	bad.Data = []byte("[")
	_, err = m.DecodeRecord(bad, "")
	assert.Error(t, err)
}

func TestFieldsOrdering(t *testing.T) {
	docs := []Document{
		{ID: "s", Fields: map[string]any{"v": "b"}},
		{ID: "n2", Fields: map[string]any{"v": 2.0}},
		{ID: "missing"},
		{ID: "n1", Fields: map[string]any{"v": 1.0}},
		{ID: "t", Fields: map[string]any{"v": true}},
		{ID: "s0", Fields: map[string]any{"v": "a"}},
	}
	cmp := Fields("v")["v"]
	slices.SortStableFunc(docs, cmp)

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"missing", "t", "n1", "n2", "s0", "s"}, ids)

	byID := Fields("id")["id"]
	assert.Negative(t, byID(Document{ID: "a"}, Document{ID: "b"}))
}

func TestNamedFilters(t *testing.T) {
	doc := Document{ID: "d", Fields: map[string]any{"category": "go", "players": 3.0}}

	eq, err := registry.GetFilter[Document]("eq:category=go")
	require.NoError(t, err)
	assert.True(t, eq(doc))

	num, err := registry.GetFilter[Document]("eq:players=3")
	require.NoError(t, err)
	assert.True(t, num(doc))

	has, err := registry.GetFilter[Document]("has:rating")
	require.NoError(t, err)
	assert.False(t, has(doc))

	_, err = registry.GetFilter[Document]("eq:novalue")
	assert.Error(t, err)
}

func TestFieldNames(t *testing.T) {
	docs := []Document{
		{ID: "a", Fields: map[string]any{"name": "x", "players": 1.0}},
		{ID: "b", Fields: map[string]any{"category": "go"}},
	}
	assert.Equal(t, []string{"category", "id", "name", "players"}, FieldNames(docs))
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query_test

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/suparena/recordengine/query"
)

type player struct {
	Name   string
	Rating int
	Joined time.Time
}

func TestFieldComparators(t *testing.T) {
	a := player{Name: "anna", Rating: 1500, Joined: epoch}
	b := player{Name: "Bert", Rating: 1200, Joined: epoch.Add(time.Hour)}

	assert.Positive(t, query.StringField(func(p player) string { return p.Name })(a, b), "ordinal: lower case sorts after upper case")
	assert.Positive(t, query.OrderedField(func(p player) int { return p.Rating })(a, b))
	assert.Negative(t, query.TimeField(func(p player) time.Time { return p.Joined })(a, b))
	assert.Zero(t, query.OrderedField(func(p player) int { return p.Rating })(a, a))
}

func TestCollatedField(t *testing.T) {
	byName := query.CollatedField(language.English, func(p player) string { return p.Name }, collate.IgnoreCase)
	players := []player{{Name: "zoe"}, {Name: "Émile"}, {Name: "bert"}, {Name: "Anna"}}

	slices.SortStableFunc(players, byName)
	got := make([]string, len(players))
	for i, p := range players {
		got[i] = p.Name
	}
	assert.Equal(t, []string{"Anna", "bert", "Émile", "zoe"}, got)
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package docmodel stores schemaless JSON documents in a record store. It
// backs the recordengine command line tool.
package docmodel

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/registry"
)

// Indexes is the index count of a document store: the id and the value of
// the configured index field.
const Indexes = 2

// Document is one JSON object with a string id.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
	Token  string         `json:"token,omitempty"`
}

// Get returns the value of a top-level field, or "id" for the id.
func (d Document) Get(field string) (any, bool) {
	if field == "id" {
		return d.ID, true
	}
	v, ok := d.Fields[field]
	return v, ok
}

// Text renders a field value for indexing and display.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// NewMapper maps documents to records: Keys[0] is the id, Keys[1] the
// text of indexField, Data the JSON of the fields.
func NewMapper(indexField string) datastore.MapperFuncs[Document, string] {
	return datastore.MapperFuncs[Document, string]{
		Decode: func(rec *datastore.Record, token string) (Document, error) {
			d := Document{ID: string(rec.PrimaryKey()), Token: token}
			if err := json.Unmarshal(rec.Data, &d.Fields); err != nil {
				return Document{}, fmt.Errorf("document %q: %w", d.ID, err)
			}
			return d, nil
		},
		Encode: func(d Document, rec *datastore.Record) error {
			if strings.TrimSpace(d.ID) == "" {
				return fmt.Errorf("document id is required")
			}
			fields := d.Fields
			if fields == nil {
				fields = map[string]any{}
			}
			data, err := json.Marshal(fields)
			if err != nil {
				return err
			}
			v, _ := d.Get(indexField)
			rec.SetKey(0, []byte(d.ID))
			rec.SetKey(1, []byte(Text(v)))
			rec.Data = data
			return nil
		},
		EncodePk: func(pk string, rec *datastore.Record) error {
			rec.SetKey(0, []byte(pk))
			return nil
		},
		KeyOf:   func(d Document) string { return d.ID },
		TokenOf: func(d Document) string { return d.Token },
	}
}

// Fields builds a comparator table for the named fields. Missing values
// sort first, then booleans, numbers and strings, each in natural order.
func Fields(names ...string) registry.FieldSet[Document] {
	fs := make(registry.FieldSet[Document], len(names))
	for _, name := range names {
		fs[name] = func(a, b Document) int {
			av, _ := a.Get(name)
			bv, _ := b.Get(name)
			return compareValues(av, bv)
		}
	}
	return fs
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		return strings.Compare(x, b.(string))
	case nil:
		return 0
	}
	return strings.Compare(Text(a), Text(b))
}

// FieldNames returns "id" plus every top-level field that occurs in docs,
// sorted.
func FieldNames(docs []Document) []string {
	seen := map[string]struct{}{"id": {}}
	for _, d := range docs {
		for k := range d.Fields {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

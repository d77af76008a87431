/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/registry"
)

// RatingSystemIndexes is the number of ordered indices a rating system
// store carries: the primary key (ID) and the category.
const RatingSystemIndexes = 2

type RatingSystem struct {

	// Timestamp when the rating system was created.
	// Required: true
	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"CreatedAt"`

	// A description of the rating system.
	// Required: true
	Description *string `json:"Description"`

	// Unique identifier for the rating system.
	// Required: true
	ID *string `json:"Id"`

	// Name of the rating system.
	// Required: true
	Name *string `json:"Name"`

	// Sport or game the system rates; secondary index 1.
	Category string `json:"Category,omitempty"`

	// Number of rated players.
	Players int `json:"Players"`

	// site Url
	SiteURL string `json:"SiteUrl,omitempty"`

	// Timestamp when the rating system was last updated.
	// Required: true
	// Format: date-time
	UpdatedAt *strfmt.DateTime `json:"UpdatedAt"`

	// Concurrency token of the stored version. Not persisted.
	Token string `json:"-"`
}

// NewRatingSystem builds a rating system with both timestamps set to created.
func NewRatingSystem(id, name, category string, players int, created time.Time) RatingSystem {
	ct := strfmt.DateTime(created.UTC())
	desc := name + " rating system"
	return RatingSystem{
		ID:          &id,
		Name:        &name,
		Description: &desc,
		Category:    category,
		Players:     players,
		CreatedAt:   &ct,
		UpdatedAt:   &ct,
	}
}

// Key returns the ID or "" when unset.
func (r RatingSystem) Key() string {
	if r.ID == nil {
		return ""
	}
	return *r.ID
}

// RatingSystemMapper maps rating systems to records: Keys[0] is the ID,
// Keys[1] the category, Data the JSON document.
var RatingSystemMapper = datastore.MapperFuncs[RatingSystem, string]{
	Decode: func(rec *datastore.Record, token string) (RatingSystem, error) {
		var rs RatingSystem
		if err := json.Unmarshal(rec.Data, &rs); err != nil {
			return RatingSystem{}, err
		}
		if rs.Key() != string(rec.PrimaryKey()) {
			return RatingSystem{}, fmt.Errorf("document id %q does not match key %q", rs.Key(), rec.PrimaryKey())
		}
		rs.Token = token
		return rs, nil
	},
	Encode: func(rs RatingSystem, rec *datastore.Record) error {
		if rs.Key() == "" {
			return fmt.Errorf("rating system has no id")
		}
		data, err := json.Marshal(rs)
		if err != nil {
			return err
		}
		rec.SetKey(0, []byte(rs.Key()))
		rec.SetKey(1, []byte(rs.Category))
		rec.Data = data
		return nil
	},
	EncodePk: func(pk string, rec *datastore.Record) error {
		rec.SetKey(0, []byte(pk))
		return nil
	},
	KeyOf:   RatingSystem.Key,
	TokenOf: func(rs RatingSystem) string { return rs.Token },
}

// RatingSystemFields is the sortable field table of RatingSystem.
func RatingSystemFields() registry.FieldSet[RatingSystem] {
	return registry.FieldSet[RatingSystem]{
		"Id": func(a, b RatingSystem) int {
			return strings.Compare(a.Key(), b.Key())
		},
		"Name": func(a, b RatingSystem) int {
			return strings.Compare(deref(a.Name), deref(b.Name))
		},
		"Category": func(a, b RatingSystem) int {
			return strings.Compare(a.Category, b.Category)
		},
		"Players": func(a, b RatingSystem) int {
			return cmp.Compare(a.Players, b.Players)
		},
		"CreatedAt": func(a, b RatingSystem) int {
			return compareDateTime(a.CreatedAt, b.CreatedAt)
		},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// compareDateTime orders unset timestamps first.
func compareDateTime(a, b *strfmt.DateTime) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return time.Time(*a).Compare(time.Time(*b))
}

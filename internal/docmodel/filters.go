/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docmodel

import (
	"fmt"
	"strings"

	"github.com/suparena/recordengine/registry"
)

// Filter factories, addressable as "eq:field=value" and "has:field". Named
// filters survive in durable continuation tokens.
const (
	FilterEquals = "eq"
	FilterHas    = "has"
)

func init() {
	registry.RegisterFilterFactory(FilterEquals, func(arg string) (func(Document) bool, error) {
		field, want, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("want field=value, got %q", arg)
		}
		return func(d Document) bool {
			v, ok := d.Get(field)
			return ok && Text(v) == want
		}, nil
	})
	registry.RegisterFilterFactory(FilterHas, func(field string) (func(Document) bool, error) {
		if field == "" {
			return nil, fmt.Errorf("field is required")
		}
		return func(d Document) bool {
			_, ok := d.Get(field)
			return ok
		}, nil
	})
}

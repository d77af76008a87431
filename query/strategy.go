/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"strings"

	"github.com/suparena/recordengine/errors"
)

// Strategy selects how an engine evaluates criteria.
type Strategy int

const (
	// Cached evaluates criteria against the full-extent cache: filter,
	// stable sort, then slice pages by page number.
	Cached Strategy = iota
	// Indexed streams the store's ordered index with an early exit and
	// resumes after the last record of the previous page.
	Indexed
)

func (s Strategy) String() string {
	switch s {
	case Cached:
		return "cached"
	case Indexed:
		return "indexed"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy parses "cached" or "indexed".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cached", "cache", "a":
		return Cached, nil
	case "indexed", "index", "b":
		return Indexed, nil
	}
	return 0, errors.NewArgumentError("strategy", fmt.Sprintf("unknown strategy %q", s))
}

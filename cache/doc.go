/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package cache keeps per-store materialized snapshots of every record,
// mapped to models. An entry is valid while the store's freshness marker
// equals the one captured when the entry was filled and the entry has
// been read within the idle window. Fills run under single-flight.
package cache

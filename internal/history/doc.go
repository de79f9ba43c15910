// Package history keeps the append-only log of terminal posting outcomes.
//
// The SQLite Store backs production runs; triggers reject UPDATE and DELETE so
// records can only be appended. The Index built from posted outcomes drives the
// scheduler's lookback window and least-recently-posted ordering.
package history

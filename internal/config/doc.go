// Package config loads, normalizes, and validates cadence configuration data.
//
// It supplies repository defaults (including the two stock destinations and
// the weekday theme table), expands user paths, and reads TOML files. Queue,
// history and lock paths default to files under the data directory.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical policy names, and clear validation errors.
package config

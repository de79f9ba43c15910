// Package logs reads back the cadence log file.
//
// Both handler formats are understood: JSON lines from the json format and
// "ts LEVEL component: msg key=value" lines from the console format. Filters
// match on the structured fields, so `cadence logs --run <id>` shows one
// planning or publishing run.
package logs

// Package main hosts the cadence CLI.
//
// Commands plan the posting queue, inspect and repair it, run the publishing
// pass and list the catalog and history. Commands that change the queue hold
// the run lock for the whole read-modify-write cycle.
package main

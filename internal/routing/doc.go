// Package routing decides which destination pages a catalog item qualifies for.
//
// Destinations are plain data: an inclusion Rule, posting slots and the
// per-audience tailoring pools consumed by the spread package. Adding a page is
// a configuration change; the router evaluates every rule the same way.
package routing

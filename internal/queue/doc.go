// Package queue owns the unified posting queue: one tailored posting per
// destination per item, persisted as a single JSON document.
//
// A posting moves pending → posted, or pending → failed → pending through an
// explicit Reschedule. The Manager rejects a second pending or posted posting of
// the same content to the same destination on one calendar day, and answers
// the time-sorted due and day queries the publishing pass relies on.
//
// Every mutation re-reads the document, applies the change and rewrites the
// whole file atomically. Cross-process exclusion is the caller's job (see the
// runlock package); the Manager never retries a failed write and surfaces it
// as a PersistenceError.
package queue

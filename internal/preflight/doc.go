// Package preflight provides readiness checks for postings and for the
// directories cadence reads and writes.
//
// These checks run in two contexts:
//   - The publishing pass calls CheckPosting before handing a posting to the
//     publisher. A failed check marks the posting failed without publishing it.
//   - The CLI "cadence config validate" command calls RunAll to report
//     directory health.
//
// Warnings never block anything; they are reported alongside passed checks.
package preflight

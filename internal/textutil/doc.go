// Package textutil holds the small text helpers shared by the scanners, the
// duplicate handler and the CLI: tokenizing names into keywords, comparing and
// building hashtags, and filesystem-safe tokens.
package textutil

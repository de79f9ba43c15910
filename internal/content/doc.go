// Package content models the postable catalog that feeds the scheduler.
//
// Items are a tagged variant over templates and notebooks sharing one field set.
// The pair (content type, id) is the join key used everywhere else in the
// system; presentation fields are treated as immutable for the life of an item.
// A Catalog preserves first-seen order so selection stays reproducible, while
// later sightings of the same key replace the presentation fields.
//
// Catalogs are built either from scanner output (see package scan) or from a
// hand-curated YAML manifest.
package content

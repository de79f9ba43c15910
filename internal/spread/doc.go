// Package spread turns one routed content item into tailored queue postings.
//
// Items accepted by several destinations form a duplicate group: postings are
// staggered MinGapDays calendar days apart in destination priority order, share
// a group id and only the first is the original. Each posting carries an intro
// phrase picked for its destination and a hashtag list adjusted to the
// destination's audience.
package spread

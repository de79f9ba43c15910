package content

import (
	"fmt"
	"strings"
)

// Catalog is a read-only, ordered collection of items keyed by (type, id).
type Catalog struct {
	items []Item
	index map[Key]int
}

// NewCatalog builds a catalog from one or more item sequences. When the same key
// appears more than once the first position is kept and the last sighting's
// fields win. Items with an empty id or unknown type are skipped.
func NewCatalog(sources ...[]Item) *Catalog {
	c := &Catalog{index: make(map[Key]int)}
	for _, source := range sources {
		for _, item := range source {
			c.add(item)
		}
	}
	return c
}

func (c *Catalog) add(item Item) {
	item = item.normalized()
	if item.ID == "" {
		return
	}
	t, ok := ParseType(string(item.Type))
	if !ok {
		return
	}
	item.Type = t
	key := item.Key()
	if pos, ok := c.index[key]; ok {
		c.items[pos] = item
		return
	}
	c.index[key] = len(c.items)
	c.items = append(c.items, item)
}

// Len returns the number of distinct items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Items returns a copy of the items in catalog order.
func (c *Catalog) Items() []Item {
	if c == nil {
		return nil
	}
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Lookup returns the item stored under the given key.
func (c *Catalog) Lookup(t Type, id string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	pos, ok := c.index[Key{Type: t, ID: strings.TrimSpace(id)}]
	if !ok {
		return Item{}, false
	}
	return c.items[pos], true
}

// Contains reports whether the catalog lists the given key.
func (c *Catalog) Contains(t Type, id string) bool {
	_, ok := c.Lookup(t, id)
	return ok
}

// Position returns the catalog order of a key, or -1 when absent.
func (c *Catalog) Position(key Key) int {
	if c == nil {
		return -1
	}
	if pos, ok := c.index[key]; ok {
		return pos
	}
	return -1
}

// CountByType returns how many items of each type are present.
func (c *Catalog) CountByType() map[Type]int {
	counts := make(map[Type]int, len(allTypes))
	if c == nil {
		return counts
	}
	for _, item := range c.items {
		counts[item.Type]++
	}
	return counts
}

func (c *Catalog) String() string {
	counts := c.CountByType()
	return fmt.Sprintf("catalog(%d templates, %d notebooks)", counts[TypeTemplate], counts[TypeNotebook])
}

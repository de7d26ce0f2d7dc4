// Package monitor holds the change-detection core: canonical item values,
// the committed state snapshot, and the commit/suppress decision logic.
package monitor

import (
	"assetbot/internal/scrape"
)

// Item is one promotional listing. Link is the identity key: two items with
// the same link are the same item even when the display text or image URL
// was re-rendered differently.
type Item struct {
	Name  string `json:"name"`
	Link  string `json:"link"`
	Image string `json:"image,omitempty"`
}

// Normalize maps raw scraped records to canonical items: records without a
// link are dropped, later duplicates by link are dropped, first-seen order
// is kept. An empty result is a legal state (nothing currently free), not an
// error.
func Normalize(records []scrape.Record) []Item {
	items := make([]Item, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.Link == "" {
			continue
		}
		if _, dup := seen[r.Link]; dup {
			continue
		}
		seen[r.Link] = struct{}{}
		items = append(items, Item{Name: r.Name, Link: r.Link, Image: r.Image})
	}
	return items
}

// Package news normalises provider news search results.
package news

import (
	"strings"
	"time"

	"github.com/bobmcallan/stockdash/internal/models"
)

// MaxItems caps the rendered list.
const MaxItems = 5

// PostedAtLayout is the display layout for PostedAt.
const PostedAtLayout = "2006-01-02 15:04:05"

// Item is one normalised news record.
type Item struct {
	Title     string    `json:"title"`
	Publisher string    `json:"publisher"`
	Link      string    `json:"link"`
	PostedAt  time.Time `json:"posted_at"`
}

// PostedAtText renders PostedAt in UTC.
func (i Item) PostedAtText() string {
	return i.PostedAt.UTC().Format(PostedAtLayout)
}

// BuildNewsList keeps provider order, drops untitled items and returns at most MaxItems.
// The result is never nil.
func BuildNewsList(raw []models.RawNewsItem) []Item {
	out := make([]Item, 0, min(len(raw), MaxItems))
	for _, r := range raw {
		if len(out) == MaxItems {
			break
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		out = append(out, Item{
			Title:     title,
			Publisher: strings.TrimSpace(r.Publisher),
			Link:      r.Link,
			PostedAt:  time.Unix(r.ProviderPublishTime, 0).UTC(),
		})
	}
	return out
}

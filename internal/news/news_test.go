package news

import (
	"fmt"
	"testing"
	"time"

	"github.com/bobmcallan/stockdash/internal/models"
)

func TestBuildNewsList_CapsAtFive(t *testing.T) {
	raw := make([]models.RawNewsItem, 7)
	for i := range raw {
		raw[i] = models.RawNewsItem{
			Title:               fmt.Sprintf("Headline %d", i),
			Publisher:           "Reuters",
			Link:                fmt.Sprintf("https://example.com/%d", i),
			ProviderPublishTime: 1700000000 + int64(i),
		}
	}

	items := BuildNewsList(raw)
	if len(items) != MaxItems {
		t.Fatalf("expected %d items, got %d", MaxItems, len(items))
	}
	for i, item := range items {
		if item.Title == "" {
			t.Errorf("item %d has empty title", i)
		}
		if item.PostedAt.Location() != time.UTC {
			t.Errorf("item %d: expected UTC timestamp, got %s", i, item.PostedAt.Location())
		}
	}
	if items[0].Title != "Headline 0" {
		t.Errorf("expected provider order kept, got %s first", items[0].Title)
	}
}

func TestBuildNewsList_DropsBlankTitles(t *testing.T) {
	raw := []models.RawNewsItem{
		{Title: "  ", Publisher: "A"},
		{Title: "Real story", Publisher: "B", ProviderPublishTime: 1700000000},
	}
	items := BuildNewsList(raw)
	if len(items) != 1 || items[0].Publisher != "B" {
		t.Fatalf("expected only the titled item, got %+v", items)
	}
}

func TestBuildNewsList_Empty(t *testing.T) {
	items := BuildNewsList(nil)
	if items == nil {
		t.Fatal("expected non-nil empty list")
	}
	if len(items) != 0 {
		t.Errorf("expected 0 items, got %d", len(items))
	}
}

func TestPostedAtText(t *testing.T) {
	items := BuildNewsList([]models.RawNewsItem{{Title: "x", ProviderPublishTime: 1700000000}})
	if got := items[0].PostedAtText(); got != "2023-11-14 22:13:20" {
		t.Errorf("expected 2023-11-14 22:13:20, got %s", got)
	}
}

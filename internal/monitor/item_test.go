package monitor

import (
	"testing"

	"assetbot/internal/scrape"
)

func TestNormalizeDedupByLink(t *testing.T) {
	t.Parallel()
	items := Normalize([]scrape.Record{
		{Name: "Stylized Forest", Link: "https://example.com/a", Image: "https://img/a.png"},
		{Name: "Stylized Forest (rerender)", Link: "https://example.com/a", Image: "https://img/a2.png"},
		{Name: "Sword Pack", Link: "https://example.com/b"},
	})
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Name != "Stylized Forest" || items[0].Image != "https://img/a.png" {
		t.Fatalf("first occurrence display data not retained: %+v", items[0])
	}
	if items[1].Link != "https://example.com/b" {
		t.Fatalf("order not preserved: %+v", items[1])
	}
}

func TestNormalizeDropsRecordsWithoutLink(t *testing.T) {
	t.Parallel()
	items := Normalize([]scrape.Record{
		{Name: "no link"},
		{Name: "ok", Link: "https://example.com/x"},
	})
	if len(items) != 1 || items[0].Name != "ok" {
		t.Fatalf("unexpected result: %+v", items)
	}
}

func TestNormalizeEmptyInputIsLegal(t *testing.T) {
	t.Parallel()
	if items := Normalize(nil); len(items) != 0 {
		t.Fatalf("expected empty result, got %+v", items)
	}
}

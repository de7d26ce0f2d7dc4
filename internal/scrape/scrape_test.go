package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"assetbot/internal/config"
)

type fakeRenderer struct {
	pages []string
	errs  []error
	calls int
}

func (f *fakeRenderer) Render(context.Context, string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.pages) {
		return f.pages[i], nil
	}
	return f.pages[len(f.pages)-1], nil
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	r := &fakeRenderer{
		errs:  []error{errors.New("timeout"), nil},
		pages: []string{"", samplePage},
	}
	s := New(config.ScrapeConfig{URL: "https://example.com", Attempts: 3}, r, zerolog.Nop())

	res, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("renderer called %d times, want 2", r.calls)
	}
	if len(res.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(res.Records))
	}
}

func TestFetchGivesUpAfterAttempts(t *testing.T) {
	t.Parallel()
	boom := errors.New("browser gone")
	r := &fakeRenderer{errs: []error{boom, boom}, pages: []string{"", ""}}
	s := New(config.ScrapeConfig{URL: "https://example.com", Attempts: 2}, r, zerolog.Nop())

	if _, err := s.Fetch(context.Background()); err == nil {
		t.Fatal("expected error after exhausted attempts")
	}
	if r.calls != 2 {
		t.Fatalf("renderer called %d times, want 2", r.calls)
	}
}

func TestFetchRetriesPartialRender(t *testing.T) {
	t.Parallel()
	r := &fakeRenderer{pages: []string{"<html><body></body></html>", samplePage}}
	s := New(config.ScrapeConfig{URL: "https://example.com", Attempts: 2}, r, zerolog.Nop())

	res, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Deadline != "until Oct 1" {
		t.Fatalf("Deadline = %q", res.Deadline)
	}
}

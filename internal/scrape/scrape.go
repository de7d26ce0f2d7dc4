// Package scrape fetches the marketplace storefront and extracts the
// rotating free-asset section. Retries and backoff live here; callers get
// either a parsed result or an error, never an ambiguous empty value.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog"

	"assetbot/internal/config"
)

// Record is one candidate listing as it appears on the page, before
// normalization. Image may be empty.
type Record struct {
	Name  string
	Link  string
	Image string
}

// Result is a successful scrape: the candidate records in page order and the
// promotion deadline text ("" when the page shows none).
type Result struct {
	Records  []Record
	Deadline string
}

// ErrSectionMissing reports a page that rendered without the free-asset
// section. The storefront sometimes serves a partial render, so this is
// retryable.
var ErrSectionMissing = errors.New("free section not found in page")

// Renderer produces the fully rendered HTML of a page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Scraper fetches and parses the storefront page.
type Scraper struct {
	cfg      config.ScrapeConfig
	renderer Renderer
	log      zerolog.Logger
}

func New(cfg config.ScrapeConfig, renderer Renderer, log zerolog.Logger) *Scraper {
	return &Scraper{cfg: cfg, renderer: renderer, log: log}
}

// Fetch renders the storefront and extracts the free-asset section,
// retrying with backoff on transient failures.
func (s *Scraper) Fetch(ctx context.Context) (*Result, error) {
	attempts := uint(s.cfg.Attempts)
	if attempts == 0 {
		attempts = 1
	}

	var res *Result
	err := retry.Do(
		func() error {
			html, err := s.renderer.Render(ctx, s.cfg.URL)
			if err != nil {
				return fmt.Errorf("render %s: %w", s.cfg.URL, err)
			}
			r, err := Parse(html)
			if err != nil {
				return err
			}
			res = r
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(2*time.Second),
		retry.MaxDelay(time.Minute),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.log.Warn().Uint("attempt", n+1).Err(err).Msg("scrape attempt failed, retrying")
		}),
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

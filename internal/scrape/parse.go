package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	baseURL        = "https://www.unrealengine.com"
	freeSectionSel = "section.assets-block.marketplace-home-free"
	assetSel       = "div.asset-container"
	deadlineSel    = ".deadline, .asset-discount-expiration, time"
)

// Parse extracts the free-asset section from rendered storefront HTML.
//
// Listings missing a link are skipped here only when the anchor element is
// absent entirely; identity-level filtering is the normalizer's job. A page
// without the section at all returns ErrSectionMissing so the fetch layer
// can retry.
func Parse(html string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	section := doc.Find(freeSectionSel).First()
	if section.Length() == 0 {
		return nil, ErrSectionMissing
	}

	res := &Result{
		Deadline: strings.TrimSpace(section.Find(deadlineSel).First().Text()),
	}

	section.Find(assetSel).Each(func(_ int, el *goquery.Selection) {
		rec := Record{
			Name: strings.TrimSpace(el.Find("h3").First().Text()),
		}
		if href, ok := el.Find("a[href]").First().Attr("href"); ok {
			rec.Link = absoluteURL(href)
		}
		if src, ok := el.Find("img[src]").First().Attr("src"); ok {
			rec.Image = absoluteURL(src)
		}
		res.Records = append(res.Records, rec)
	})

	return res, nil
}

func absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return baseURL + href
}

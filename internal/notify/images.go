package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// ImageSource downloads artwork bytes for one descriptor.
type ImageSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageFetcher is the HTTP-backed ImageSource.
type ImageFetcher struct {
	client *resty.Client
}

func NewImageFetcher(timeout time.Duration) *ImageFetcher {
	return &ImageFetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(1),
	}
}

func (f *ImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("image fetch %s: status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}

// fetchAll resolves descriptors to photo payloads, in order. A failed
// download drops that one attachment and keeps going; the log line is the
// only trace.
func fetchAll(ctx context.Context, src ImageSource, images []Image, log zerolog.Logger) []Photo {
	if src == nil || len(images) == 0 {
		return nil
	}
	photos := make([]Photo, 0, len(images))
	for _, img := range images {
		data, err := src.Fetch(ctx, img.URL)
		if err != nil {
			log.Warn().Str("name", img.Name).Str("url", img.URL).Err(err).
				Msg("image fetch failed, sending without attachment")
			continue
		}
		photos = append(photos, Photo{Name: img.Name, Data: data})
	}
	return photos
}

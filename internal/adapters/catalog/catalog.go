// Package catalog fetches random tracks from a JSON music API.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/goccy/go-json"
)

type response struct {
	Success bool `json:"success"`
	Info    struct {
		ID     json.RawMessage `json:"id"`
		Name   string          `json:"name"`
		Author string          `json:"auther"`
		PicURL string          `json:"pic_url"`
		PicAlt string          `json:"picUrl"`
		URL    string          `json:"url"`
	} `json:"info"`
}

// HTTPCatalog implements core.MusicCatalog. Every failure wraps
// core.ErrUnavailable.
type HTTPCatalog struct {
	URL       string
	UserAgent string
	Client    *http.Client
}

func New(url string, timeout time.Duration, userAgent string) *HTTPCatalog {
	return &HTTPCatalog{
		URL:       url,
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPCatalog) FetchRandomTrack(ctx context.Context) (domain.Track, error) {
	if c.URL == "" {
		return domain.Track{}, fmt.Errorf("%w: music api url not configured", core.ErrUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return domain.Track{}, fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return domain.Track{}, fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Track{}, fmt.Errorf("%w: status %d", core.ErrUnavailable, resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Track{}, fmt.Errorf("%w: decode: %v", core.ErrUnavailable, err)
	}
	if !body.Success || body.Info.URL == "" {
		return domain.Track{}, fmt.Errorf("%w: catalog returned no track", core.ErrUnavailable)
	}

	cover := body.Info.PicURL
	if cover == "" {
		cover = body.Info.PicAlt
	}
	return domain.Track{
		ID:        strings.Trim(string(body.Info.ID), `"`),
		Title:     body.Info.Name,
		Artist:    body.Info.Author,
		CoverURL:  cover,
		StreamURL: body.Info.URL,
	}, nil
}

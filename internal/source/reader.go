// Package source fetches and parses remote syndication feeds.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/mmcdole/gofeed"
)

const (
	defaultTimeout = 30 * time.Second
	maxFeedBytes   = 16 << 20
	maxRedirects   = 10
	userAgent      = "Mozilla/5.0 (compatible; feedfilter/1.0)"
)

// Parsed is one fetch of a feed document.
type Parsed struct {
	// Status is 200, or 301/302 when the feed moved. In the latter case Href
	// is the new location.
	Status int
	Href   string

	Title       string
	Link        string
	Description string
	Entries     []models.Entry
}

// Redirected reports whether the feed answered with a permanent or
// temporary move.
func (p *Parsed) Redirected() bool {
	return p.Status == http.StatusMovedPermanently || p.Status == http.StatusFound
}

type Reader struct {
	client *http.Client
}

// NewReader returns a reader over client. A nil client gets a default one
// with a request timeout.
func NewReader(client *http.Client) *Reader {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Reader{client: client}
}

// Parse fetches url and parses the feed. Transport errors, parse errors and
// unexpected statuses are reported as common.ErrSourceUnavailable.
func (r *Reader) Parse(ctx context.Context, url string) (*Parsed, error) {
	first := new(int)
	client := *r.client
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if *first == 0 && req.Response != nil {
			*first = req.Response.StatusCode
		}
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: server status = %d", common.ErrSourceUnavailable, resp.StatusCode)
	}

	status := http.StatusOK
	switch *first {
	case 0:
	case http.StatusMovedPermanently, http.StatusFound:
		status = *first
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", common.ErrSourceUnavailable, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed: %w", common.ErrSourceUnavailable, err)
	}

	p := &Parsed{
		Status:      status,
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Entries:     Entries(feed),
	}
	if p.Link == "" {
		p.Link = feed.FeedLink
	}
	if p.Redirected() {
		p.Href = resp.Request.URL.String()
	}
	return p, nil
}

// Entries converts parsed feed items into entries, numbered from 1 in
// document order.
func Entries(feed *gofeed.Feed) []models.Entry {
	out := make([]models.Entry, 0, len(feed.Items))
	for i, it := range feed.Items {
		if it == nil {
			continue
		}
		e := models.Entry{
			Index:       i + 1,
			Link:        CleanLink(it.Link),
			Title:       strings.TrimSpace(it.Title),
			Tags:        append([]string(nil), it.Categories...),
			Description: it.Description,
			Content:     it.Content,
		}
		switch {
		case it.PublishedParsed != nil:
			e.PublishedAt = it.PublishedParsed.UTC()
		case it.UpdatedParsed != nil:
			e.PublishedAt = it.UpdatedParsed.UTC()
		}
		out = append(out, e)
	}
	return out
}

func isTrackingParam(k string) bool {
	return k == "fbclid" || k == "gclid"
}

// CleanLink normalises an entry link: whitespace and fragments are dropped,
// tracking parameters removed and job-board "&rtk" suffixes cut off.
// Unparseable links are returned trimmed.
func CleanLink(link string) string {
	link = strings.TrimSpace(link)
	if i := strings.Index(link, "&rtk"); i >= 0 {
		link = link[:i]
	}
	if link == "" {
		return ""
	}

	u, err := nurl.Parse(link)
	if err != nil {
		return link
	}
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		removed := false
		for k := range q {
			if strings.HasPrefix(strings.ToLower(k), "utm_") || isTrackingParam(k) {
				q.Del(k)
				removed = true
			}
		}
		if removed {
			u.RawQuery = q.Encode()
		}
	}
	return u.String()
}

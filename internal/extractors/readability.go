package extractors

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dmitrijs2005/feedfilter/internal/models"
	readability "github.com/go-shiori/go-readability"
)

// Readability extracts the main article body of arbitrary pages.
type Readability struct {
	client *http.Client
}

func NewReadability(client *http.Client) *Readability {
	if client == nil {
		client = defaultClient()
	}
	return &Readability{client: client}
}

func (r *Readability) ID() string { return ReadabilityID }

func (r *Readability) Extract(ctx context.Context, url string) (*models.Extraction, error) {
	u, err := nurl.Parse(url)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	body, err := fetch(ctx, r.client, url)
	if err != nil {
		return nil, err
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	return &models.Extraction{
		Title:    article.Title,
		HTML:     article.Content,
		TopImage: article.Image,
		Tags:     metaKeywords(body),
	}, nil
}

// metaKeywords reads <meta name="keywords"> and article:tag entries.
func metaKeywords(body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var tags []string
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			return
		}
		seen[strings.ToLower(s)] = true
		tags = append(tags, s)
	}

	doc.Find(`meta[name="keywords"], meta[name="news_keywords"]`).Each(func(_ int, s *goquery.Selection) {
		for _, kw := range strings.Split(s.AttrOr("content", ""), ",") {
			add(kw)
		}
	})
	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("content", ""))
	})
	return tags
}

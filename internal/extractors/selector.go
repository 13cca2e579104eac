package extractors

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dmitrijs2005/feedfilter/internal/models"
)

// Selector extracts content with per-site CSS selectors.
type Selector struct {
	client *http.Client
	sites  Sites
}

func NewSelector(client *http.Client, sites Sites) *Selector {
	if client == nil {
		client = defaultClient()
	}
	return &Selector{client: client, sites: sites}
}

func (s *Selector) ID() string { return SelectorID }

func (s *Selector) Extract(ctx context.Context, url string) (*models.Extraction, error) {
	rule, ok := s.sites.Match(url)
	if !ok {
		return nil, fmt.Errorf("no site rule for %s", url)
	}
	doc, err := fetchDocument(ctx, s.client, url)
	if err != nil {
		return nil, err
	}

	out := &models.Extraction{}
	if rule.Images != "" {
		out.Images = imageSources(doc, rule.Images)
		if len(out.Images) > 0 {
			out.TopImage = out.Images[0]
		}
	}
	if rule.Tags != "" {
		out.Tags = listItems(doc, rule.Tags)
	}
	if rule.Article != "" {
		out.HTML = paragraphs(doc, rule.Article, rule.ArticleStop)
	}
	return out, nil
}

// paragraphs concatenates the <p> elements under sel, skipping those inside
// a div carrying the stop class.
func paragraphs(doc *goquery.Document, sel, stopClass string) string {
	root := doc.Find(sel).First()
	if root.Length() == 0 {
		return ""
	}

	var b strings.Builder
	root.Find("p").Each(func(_ int, p *goquery.Selection) {
		if stopClass != "" && p.ParentsFiltered("div."+stopClass).Length() > 0 {
			return
		}
		if h, err := goquery.OuterHtml(p); err == nil {
			b.WriteString(h)
		}
	})
	return b.String()
}

func listItems(doc *goquery.Document, sel string) []string {
	var out []string
	doc.Find(sel).First().Find("li").Each(func(_ int, li *goquery.Selection) {
		if t := strings.TrimSpace(li.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// imageSources returns absolute image URLs under sel.
func imageSources(doc *goquery.Document, sel string) []string {
	var out []string
	doc.Find(sel).First().Find("img").Each(func(_ int, img *goquery.Selection) {
		if src := img.AttrOr("src", ""); strings.Contains(src, "http") {
			out = append(out, src)
		}
	})
	return out
}

package extractors

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dmitrijs2005/feedfilter/internal/models"
)

// Classifieds extracts listing pages: the whole posting body, an optional
// details block and the address shown on the map. Gallery images are taken
// from links first, then from img tags.
type Classifieds struct {
	client *http.Client
	sites  Sites
}

func NewClassifieds(client *http.Client, sites Sites) *Classifieds {
	if client == nil {
		client = defaultClient()
	}
	return &Classifieds{client: client, sites: sites}
}

func (c *Classifieds) ID() string { return ClassifiedsID }

func (c *Classifieds) Extract(ctx context.Context, url string) (*models.Extraction, error) {
	rule, ok := c.sites.Match(url)
	if !ok {
		return nil, fmt.Errorf("no site rule for %s", url)
	}
	doc, err := fetchDocument(ctx, c.client, url)
	if err != nil {
		return nil, err
	}

	out := &models.Extraction{}
	if rule.Images != "" {
		out.Images = galleryImages(doc, rule.Images)
		if len(out.Images) > 0 {
			out.TopImage = out.Images[0]
		}
	}
	if rule.Tags != "" {
		out.Tags = listItems(doc, rule.Tags)
	}

	body := outerHTML(doc, rule.Article)
	if body == "" {
		return out, nil
	}
	if rule.Remove != "" {
		body = strings.ReplaceAll(body, rule.Remove, "")
	}
	if details := outerHTML(doc, rule.AdditionalDetails); details != "" {
		body += "<p>" + details + "</p>"
	}
	if addr := outerHTML(doc, rule.Map); addr != "" {
		body += "<p><b><u>Address:</u></b> " + addr + "</p>"
	}
	out.HTML = body
	return out, nil
}

func outerHTML(doc *goquery.Document, sel string) string {
	if sel == "" {
		return ""
	}
	s := doc.Find(sel).First()
	if s.Length() == 0 {
		return ""
	}
	h, err := goquery.OuterHtml(s)
	if err != nil {
		return ""
	}
	return h
}

func galleryImages(doc *goquery.Document, sel string) []string {
	root := doc.Find(sel).First()
	var out []string
	root.Find("a").Each(func(_ int, a *goquery.Selection) {
		if href := a.AttrOr("href", ""); href != "" {
			out = append(out, href)
		}
	})
	if len(out) > 0 {
		return out
	}
	root.Find("img").Each(func(_ int, img *goquery.Selection) {
		if src := img.AttrOr("src", ""); src != "" {
			out = append(out, src)
		}
	})
	return out
}

package extractors

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/feedfilter/internal/models"
)

type redditListing []struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title               string       `json:"title"`
	SelfTextHTML        *string      `json:"selftext_html"`
	URL                 string       `json:"url"`
	Media               *redditMedia `json:"media"`
	Spoiler             bool         `json:"spoiler"`
	IsRedditMediaDomain bool         `json:"is_reddit_media_domain"`
	IsSelf              bool         `json:"is_self"`
	PostHint            string       `json:"post_hint"`
	LinkFlairText       *string      `json:"link_flair_text"`
}

type redditMedia struct {
	OEmbed *struct {
		HTML string `json:"html"`
	} `json:"oembed"`
}

type postType string

const (
	postSelf    postType = "self"
	postImage   postType = "image"
	postVideo   postType = "video"
	postTweet   postType = "tweet"
	postArticle postType = "article"
	postUnknown postType = "unknown"
)

var titlePrefix = map[postType]string{
	postVideo:   "VIDEO",
	postImage:   "IMG",
	postTweet:   "TWEET",
	postArticle: "ARTICLE",
}

// Reddit extracts posts through the JSON view of the post page. Linked
// articles are extracted with the linked extractor.
type Reddit struct {
	client *http.Client
	linked Extractor
}

func NewReddit(client *http.Client, linked Extractor) *Reddit {
	if client == nil {
		client = defaultClient()
	}
	if linked == nil {
		linked = NewReadability(client)
	}
	return &Reddit{client: client, linked: linked}
}

func (r *Reddit) ID() string { return RedditID }

func (r *Reddit) Extract(ctx context.Context, url string) (*models.Extraction, error) {
	body, err := fetch(ctx, r.client, strings.TrimSuffix(url, "/")+".json")
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	if len(listing) == 0 || len(listing[0].Data.Children) == 0 {
		return nil, fmt.Errorf("post not found in listing")
	}
	post := listing[0].Data.Children[0].Data

	kind := post.kind()
	out := &models.Extraction{Title: post.buildTitle(kind)}
	if post.LinkFlairText != nil && *post.LinkFlairText != "" {
		out.Tags = []string{*post.LinkFlairText}
	}

	var b strings.Builder
	if post.Spoiler {
		b.WriteString("<p><b>SPOILERS</b></p><br /><br />")
	}

	switch kind {
	case postSelf:
		if post.SelfTextHTML != nil && *post.SelfTextHTML != "" {
			b.WriteString("<p>" + html.UnescapeString(*post.SelfTextHTML) + "</p>")
		} else {
			b.WriteString("<p>" + html.EscapeString(post.Title) + "</p>")
		}
	case postImage:
		out.TopImage = post.URL
		b.WriteString("<p></p>")
	default:
		if post.URL == "" {
			break
		}
		linked, err := r.linked.Extract(ctx, post.URL)
		if err != nil {
			return nil, fmt.Errorf("linked article: %w", err)
		}
		b.WriteString(post.linkedHTML(linked))
		out.Tags = append(out.Tags, linked.Tags...)
		out.Media = append(out.Media, linked.Media...)
	}

	out.HTML = b.String()
	return out, nil
}

func (p redditPost) isImage() bool {
	if p.IsRedditMediaDomain || strings.Contains(p.PostHint, "image") {
		return true
	}
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif"} {
		if strings.Contains(p.URL, ext) {
			return true
		}
	}
	return false
}

func (p redditPost) kind() postType {
	switch {
	case p.IsSelf:
		return postSelf
	case p.isImage():
		return postImage
	case p.Media != nil || strings.Contains(p.PostHint, "video"):
		return postVideo
	case strings.Contains(p.URL, "twitter"):
		return postTweet
	case p.URL != "":
		return postArticle
	default:
		return postUnknown
	}
}

func (p redditPost) buildTitle(kind postType) string {
	title := p.Title
	if prefix, ok := titlePrefix[kind]; ok {
		title = prefix + ": " + title
	}
	if p.Spoiler {
		if p.LinkFlairText != nil && *p.LinkFlairText != "" {
			title = "[[ SPOILER - " + strings.ToUpper(*p.LinkFlairText) + " ]] -- " + title
		} else {
			title = "[[ SPOILER ]] -- " + title
		}
	}
	return title
}

func (p redditPost) linkedHTML(linked *models.Extraction) string {
	var b strings.Builder
	href := html.EscapeString(p.URL)
	if linked.TopImage != "" {
		b.WriteString(`<p><img src="` + html.EscapeString(linked.TopImage) + `" /></p>`)
	}
	b.WriteString(`<h2><a href="` + href + `">` + html.EscapeString(linked.Title) + `</a></h2>`)
	b.WriteString("<p>" + linked.HTML + "</p>")
	b.WriteString(`<p>Article URL: <a href="` + href + `">` + href + `</a></p>`)
	if p.Media != nil {
		if p.Media.OEmbed != nil && p.Media.OEmbed.HTML != "" {
			b.WriteString(`<p class="embedded-video">` + html.UnescapeString(p.Media.OEmbed.HTML) + `</p>`)
		} else {
			b.WriteString(`<p class="embedded-video">Unable to get the embedded video. <a href="` + href + `">Open the link</a> to view it.</p>`)
		}
	}
	return b.String()
}

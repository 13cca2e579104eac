package extractors

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SiteRule holds the CSS selectors used to pull content from one site.
// URL is matched as a substring of the article URL.
type SiteRule struct {
	URL               string `yaml:"url"`
	Article           string `yaml:"article"`
	ArticleStop       string `yaml:"article_stop"`
	Tags              string `yaml:"tags"`
	Images            string `yaml:"images"`
	AdditionalDetails string `yaml:"additional_details"`
	Map               string `yaml:"map"`
	Remove            string `yaml:"remove"`
}

// Sites groups rules by site name, as laid out in the YAML file:
//
//	example:
//	  - url: example.com/news
//	    article: div.story
//	    tags: ul.tags
type Sites map[string][]SiteRule

func ParseSites(data []byte) (Sites, error) {
	var s Sites
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse site rules: %w", err)
	}
	return s, nil
}

func LoadSites(path string) (Sites, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site rules: %w", err)
	}
	return ParseSites(data)
}

// Match returns the rule whose URL occurs in url. When several match, the
// longest pattern wins.
func (s Sites) Match(url string) (SiteRule, bool) {
	var best SiteRule
	found := false
	for _, rules := range s {
		for _, r := range rules {
			if r.URL == "" || !strings.Contains(url, r.URL) {
				continue
			}
			if !found || len(r.URL) > len(best.URL) {
				best, found = r, true
			}
		}
	}
	return best, found
}

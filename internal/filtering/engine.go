// Package filtering decides article visibility from a feed's rule set.
//
// Evaluate is a pure function: show rules are checked first and any match
// keeps the article visible no matter how many hide rules also match. Only
// when no show rule matches are hide rules consulted.
package filtering

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/dmitrijs2005/feedfilter/internal/textx"
)

// Target is the article text the engine looks at.
type Target struct {
	Title       string
	Description string
	Link        string
	Tags        []string
}

// TargetOf extracts the filterable fields of an article.
func TargetOf(a *models.Article) Target {
	return Target{Title: a.Title, Description: a.Description, Link: a.Link, Tags: a.Tags}
}

// fields holds every field normalised once per evaluation.
type fields map[models.Field]string

func normalizeTarget(t Target) fields {
	tags := strings.Join(t.Tags, " ")
	feed := strings.Join(append([]string{t.Title, t.Link, t.Description}, t.Tags...), " ")
	return fields{
		models.FieldTitle: textx.Normalize(t.Title),
		models.FieldBody:  textx.Normalize(t.Description),
		models.FieldLink:  textx.Normalize(t.Link),
		models.FieldTag:   textx.Normalize(tags),
		models.FieldFeed:  textx.Normalize(feed),
	}
}

func (f fields) text(field models.Field) string {
	if s, ok := f[field]; ok {
		return s
	}
	return f[models.FieldFeed]
}

// Matches reports whether a single rule fires for the target.
func Matches(rule models.FilterRule, t Target) bool {
	return matches(rule, normalizeTarget(t))
}

func matches(rule models.FilterRule, f fields) bool {
	kw := textx.Normalize(rule.Keyword)
	if kw == "" {
		return false
	}
	found := textx.ContainsWord(f.text(rule.Field), kw)
	if rule.Condition == models.ConditionExcludes {
		return !found
	}
	return found
}

// Evaluate applies rules to the target and returns the visibility decision.
func Evaluate(t Target, rules []models.FilterRule, now time.Time) models.Decision {
	f := normalizeTarget(t)

	var show, hide []models.FilterRule
	for _, r := range rules {
		switch r.Action {
		case models.ActionShow:
			if matches(r, f) {
				show = append(show, r)
			}
		case models.ActionHide:
			if matches(r, f) {
				hide = append(hide, r)
			}
		}
	}

	d := models.Decision{ActiveShowRules: show, ActiveHideRules: hide}
	if len(show) > 0 || len(hide) == 0 {
		return d
	}

	at := now
	d.Hidden = true
	d.HiddenAt = &at
	for _, r := range hide {
		d.MatchedKeywords = append(d.MatchedKeywords, r.Keyword)
	}
	return d
}

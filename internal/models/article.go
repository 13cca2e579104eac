package models

import "time"

// ArticleRecord is the persistent state of one (FeedID, URL) pair.
type ArticleRecord struct {
	ID          string
	FeedID      int64
	URL         string
	Title       string
	PublishedAt time.Time
	ExtractorID string
	Description string
	Tags        []string

	FullContentFetched bool
	FullContentRetries int

	Hidden         bool
	HiddenAt       *time.Time
	HiddenKeywords []string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version is the optimistic concurrency token; 0 means not yet stored.
	Version int64
}

// Article is the working value of one build pass. Record() is its
// persisted projection.
type Article struct {
	Index int

	RecordID string
	Version  int64

	FeedID      int64
	Link        string
	Title       string
	PublishedAt time.Time
	ExtractorID string
	Description string
	Tags        []string

	FullContentFetched bool
	FullContentRetries int

	Hidden          bool
	HiddenAt        *time.Time
	HiddenKeywords  []string
	ActiveShowRules []FilterRule
	ActiveHideRules []FilterRule
}

// Apply copies a filter decision onto the article. An article that was
// already hidden and stays hidden keeps its original HiddenAt.
func (a *Article) Apply(d Decision) {
	if !d.Hidden || !a.Hidden || a.HiddenAt == nil {
		a.HiddenAt = d.HiddenAt
	}
	a.Hidden = d.Hidden
	a.HiddenKeywords = d.MatchedKeywords
	a.ActiveShowRules = d.ActiveShowRules
	a.ActiveHideRules = d.ActiveHideRules
}

// Record projects the article onto its stored form. Hidden articles keep
// neither description nor tags.
func (a *Article) Record() *ArticleRecord {
	rec := &ArticleRecord{
		ID:                 a.RecordID,
		FeedID:             a.FeedID,
		URL:                a.Link,
		Title:              a.Title,
		PublishedAt:        a.PublishedAt,
		ExtractorID:        a.ExtractorID,
		Description:        a.Description,
		Tags:               a.Tags,
		FullContentFetched: a.FullContentFetched,
		FullContentRetries: a.FullContentRetries,
		Hidden:             a.Hidden,
		HiddenAt:           a.HiddenAt,
		HiddenKeywords:     a.HiddenKeywords,
		Version:            a.Version,
	}
	if rec.Hidden {
		rec.Description = ""
		rec.Tags = nil
	} else {
		rec.HiddenAt = nil
		rec.HiddenKeywords = nil
	}
	return rec
}

// FromRecord builds the working article for a stored record.
func FromRecord(rec *ArticleRecord) Article {
	return Article{
		RecordID:           rec.ID,
		Version:            rec.Version,
		FeedID:             rec.FeedID,
		Link:               rec.URL,
		Title:              rec.Title,
		PublishedAt:        rec.PublishedAt,
		ExtractorID:        rec.ExtractorID,
		Description:        rec.Description,
		Tags:               append([]string(nil), rec.Tags...),
		FullContentFetched: rec.FullContentFetched,
		FullContentRetries: rec.FullContentRetries,
		Hidden:             rec.Hidden,
		HiddenAt:           rec.HiddenAt,
		HiddenKeywords:     append([]string(nil), rec.HiddenKeywords...),
	}
}

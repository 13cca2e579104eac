package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------- test fakes --------

type fakeExtractor struct {
	out   *models.Extraction
	err   error
	calls int
	block bool
}

func (f *fakeExtractor) Extract(ctx context.Context, url, id string) (*models.Extraction, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %w", common.ErrExtractionFailed, ctx.Err())
	}
	return f.out, f.err
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newEngine(x Extractor) *Engine {
	return NewEngine(x, WithClock(func() time.Time { return fixedNow }))
}

func entry() models.Entry {
	return models.Entry{
		Index:       1,
		Link:        "https://news.example/a",
		Title:       "Council approves park",
		Description: "<p>Summary</p>",
		Tags:        []string{"city"},
	}
}

var failing = fmt.Errorf("%w: readability: boom", common.ErrExtractionFailed)

// -------- tests --------

func TestReconcile_MalformedEntry(t *testing.T) {
	e := newEngine(&fakeExtractor{})
	_, err := e.Reconcile(context.Background(), Input{Feed: &models.Feed{ID: 1}, Entry: models.Entry{Index: 3, Link: "  "}})
	assert.ErrorIs(t, err, common.ErrMalformedEntry)
	assert.False(t, common.IsRetryable(err))
}

func TestReconcile_NewEntryWithoutExtractor(t *testing.T) {
	x := &fakeExtractor{}
	a, err := newEngine(x).Reconcile(context.Background(), Input{Feed: &models.Feed{ID: 1}, Entry: entry()})
	require.NoError(t, err)

	assert.Equal(t, 0, x.calls)
	assert.Equal(t, int64(1), a.FeedID)
	assert.Equal(t, 1, a.Index)
	assert.Equal(t, "Council approves park", a.Title)
	assert.Equal(t, "<p>Summary</p>", a.Description)
	assert.Equal(t, models.NoExtractorID, a.ExtractorID)
	assert.Equal(t, fixedNow, a.PublishedAt)
	assert.Equal(t, int64(0), a.Version)
}

func TestReconcile_ExtractionSuccess(t *testing.T) {
	x := &fakeExtractor{out: &models.Extraction{Title: "Full title", HTML: "<p>Full body</p>", Tags: []string{"parks"}}}
	feed := &models.Feed{ID: 1, ExtractorID: "readability"}

	a, err := newEngine(x).Reconcile(context.Background(), Input{Feed: feed, Entry: entry()})
	require.NoError(t, err)

	assert.Equal(t, "Full title", a.Title)
	assert.Equal(t, "<p>Full body</p>", a.Description)
	assert.Equal(t, []string{"city", "parks"}, a.Tags)
	assert.True(t, a.FullContentFetched)
	assert.Equal(t, 0, a.FullContentRetries)
	assert.Equal(t, "readability", a.ExtractorID)
}

func TestReconcile_ExtractionFailureFallsBack(t *testing.T) {
	x := &fakeExtractor{err: failing}
	feed := &models.Feed{ID: 1, ExtractorID: "readability"}

	a, err := newEngine(x).Reconcile(context.Background(), Input{Feed: feed, Entry: entry()})
	assert.ErrorIs(t, err, common.ErrExtractionFailed)
	assert.True(t, common.IsRetryable(err))

	assert.Equal(t, "<p>Summary</p>", a.Description)
	assert.False(t, a.FullContentFetched)
	assert.Equal(t, 1, a.FullContentRetries)
	assert.Equal(t, models.NoExtractorID, a.ExtractorID)
}

func TestReconcile_EmptyExtractionCountsAsFailure(t *testing.T) {
	x := &fakeExtractor{out: &models.Extraction{HTML: ""}}
	feed := &models.Feed{ID: 1, ExtractorID: "selector"}

	a, err := newEngine(x).Reconcile(context.Background(), Input{Feed: feed, Entry: entry()})
	assert.ErrorIs(t, err, common.ErrEmptyExtraction)
	assert.Equal(t, 1, a.FullContentRetries)
	assert.False(t, a.FullContentFetched)
}

func TestReconcile_ExtractionTimeout(t *testing.T) {
	x := &fakeExtractor{block: true}
	feed := &models.Feed{ID: 1, ExtractorID: "readability"}
	e := NewEngine(x, WithExtractTimeout(20*time.Millisecond))

	a, err := e.Reconcile(context.Background(), Input{Feed: feed, Entry: entry()})
	assert.ErrorIs(t, err, common.ErrExtractionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, a.FullContentRetries)
}

// Reconciling the same entry against its own stored projection gives the
// same record.
func TestReconcile_Idempotent(t *testing.T) {
	x := &fakeExtractor{out: &models.Extraction{HTML: "<p>Full</p>"}}
	feed := &models.Feed{ID: 1, ExtractorID: "readability", RemoveText: []string{"approves"}}
	e := newEngine(x)
	ctx := context.Background()

	first, err := e.Reconcile(ctx, Input{Feed: feed, Entry: entry()})
	require.NoError(t, err)
	rec := first.Record()
	rec.Version = 1

	second, err := e.Reconcile(ctx, Input{Feed: feed, Entry: entry(), Existing: rec})
	require.NoError(t, err)
	assert.Equal(t, 1, x.calls, "unchanged configuration must not re-extract")

	again := second.Record()
	assert.Equal(t, rec, again)
}

func TestReconcile_ExtractorChangeTriggersExtraction(t *testing.T) {
	x := &fakeExtractor{out: &models.Extraction{HTML: "<p>Full</p>"}}
	rec := &models.ArticleRecord{ID: "r", FeedID: 1, URL: "https://news.example/a", ExtractorID: models.NoExtractorID, Version: 2, Description: "old"}
	feed := &models.Feed{ID: 1, ExtractorID: "readability"}

	a, err := newEngine(x).Reconcile(context.Background(), Input{Feed: feed, Entry: entry(), Existing: rec})
	require.NoError(t, err)
	assert.Equal(t, 1, x.calls)
	assert.Equal(t, "<p>Full</p>", a.Description)
	assert.Equal(t, int64(2), a.Version)
	assert.Equal(t, "r", a.RecordID)
}

func TestReconcile_HiddenRecordIsRebuiltFromSource(t *testing.T) {
	rec := &models.ArticleRecord{ID: "r", FeedID: 1, URL: "https://news.example/a", ExtractorID: models.NoExtractorID, Hidden: true, Version: 1}
	a, err := newEngine(&fakeExtractor{}).Reconcile(context.Background(), Input{Feed: &models.Feed{ID: 1}, Entry: entry(), Existing: rec})
	require.NoError(t, err)
	assert.Equal(t, "<p>Summary</p>", a.Description)
	assert.True(t, a.Hidden, "decision is left to the filter engine")
}

func TestReconcile_RetryCeiling(t *testing.T) {
	x := &fakeExtractor{err: failing}
	feed := &models.Feed{ID: 1, ExtractorID: "readability"}
	e := newEngine(x)
	ctx := context.Background()

	var rec *models.ArticleRecord
	for i := 0; i < 11; i++ {
		a, err := e.Reconcile(ctx, Input{Feed: feed, Entry: entry(), Existing: rec})
		require.True(t, errors.Is(err, common.ErrExtractionFailed))
		rec = a.Record()
	}
	assert.Equal(t, 11, x.calls)
	assert.Equal(t, 11, rec.FullContentRetries)

	a, err := e.Reconcile(ctx, Input{Feed: feed, Entry: entry(), Existing: rec})
	require.NoError(t, err)
	assert.Equal(t, 11, x.calls, "extraction must not be attempted past the ceiling")
	assert.False(t, a.FullContentFetched)
	assert.Equal(t, 11, a.FullContentRetries)

	// forced rebuild resets the counter and tries again
	x.err = nil
	x.out = &models.Extraction{HTML: "<p>back</p>"}
	a, err = e.Reconcile(ctx, Input{Feed: feed, Entry: entry(), Existing: rec, Force: true})
	require.NoError(t, err)
	assert.Equal(t, 12, x.calls)
	assert.True(t, a.FullContentFetched)
	assert.Equal(t, 0, a.FullContentRetries)
}

func TestSanitize(t *testing.T) {
	a := &models.Article{
		Title:       "SPONSORED Big news",
		Description: `<p onclick="x">Story Sponsored</p><div class="footer">Read more</div>`,
	}
	Sanitize(a, &models.Feed{StopMarker: `<div class="footer">`, RemoveText: []string{"sponsored"}})

	assert.Equal(t, "Big news", a.Title)
	assert.Equal(t, "<p>Story </p>", a.Description)
}

// knownIDs resolves ids outside its set to models.NoExtractorID.
type knownIDs struct {
	fakeExtractor
	ids map[string]bool
}

func (k *knownIDs) ResolveID(id string) string {
	if k.ids[id] {
		return id
	}
	return models.NoExtractorID
}

func TestReconcile_UnknownExtractorUsesFeedContent(t *testing.T) {
	x := &knownIDs{ids: map[string]bool{"readability": true}}
	feed := &models.Feed{ID: 1, ExtractorID: "no-such-extractor"}
	e := newEngine(x)
	ctx := context.Background()

	var rec *models.ArticleRecord
	for i := 0; i < 3; i++ {
		a, err := e.Reconcile(ctx, Input{Feed: feed, Entry: entry(), Existing: rec})
		require.NoError(t, err)
		assert.Equal(t, models.NoExtractorID, a.ExtractorID)
		assert.Equal(t, 0, a.FullContentRetries)
		assert.False(t, a.FullContentFetched)
		rec = a.Record()
		rec.Version = int64(i + 1)
	}
	assert.Zero(t, x.calls)

	feed.ExtractorID = "readability"
	x.out = &models.Extraction{HTML: "<p>full</p>"}
	a, err := e.Reconcile(ctx, Input{Feed: feed, Entry: entry(), Existing: rec})
	require.NoError(t, err)
	assert.Equal(t, 1, x.calls)
	assert.Equal(t, "readability", a.ExtractorID)
}

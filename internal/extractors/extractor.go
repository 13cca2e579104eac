package extractors

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/feedfilter/internal/common"
	"github.com/dmitrijs2005/feedfilter/internal/models"
)

const (
	ReadabilityID = "readability"
	SelectorID    = "selector"
	ClassifiedsID = "classifieds"
	RedditID      = "reddit"
)

type Extractor interface {
	ID() string
	Extract(ctx context.Context, url string) (*models.Extraction, error)
}

// None is the default extractor. It never produces content.
type None struct{}

func (None) ID() string { return models.NoExtractorID }

func (None) Extract(ctx context.Context, url string) (*models.Extraction, error) {
	return &models.Extraction{}, nil
}

type Registry struct {
	byID map[string]Extractor
}

func NewRegistry(list ...Extractor) *Registry {
	r := &Registry{byID: map[string]Extractor{models.NoExtractorID: None{}}}
	for _, e := range list {
		r.Register(e)
	}
	return r
}

// Register adds or replaces the extractor for e.ID().
func (r *Registry) Register(e Extractor) {
	r.byID[e.ID()] = e
}

// Lookup returns the extractor registered for id.
func (r *Registry) Lookup(id string) (Extractor, error) {
	if id == "" {
		id = models.NoExtractorID
	}
	e, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownExtractor, id)
	}
	return e, nil
}

// Resolve is Lookup with unknown ids mapped to None.
func (r *Registry) Resolve(id string) Extractor {
	e, err := r.Lookup(id)
	if err != nil {
		return None{}
	}
	return e
}

// ResolveID returns the id of the extractor Resolve picks for id.
func (r *Registry) ResolveID(id string) string {
	return r.Resolve(id).ID()
}

// Extract runs the extractor for id. Failures wrap common.ErrExtractionFailed
// and empty results return common.ErrEmptyExtraction.
func (r *Registry) Extract(ctx context.Context, url, id string) (*models.Extraction, error) {
	e := r.Resolve(id)
	out, err := e.Extract(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrExtractionFailed, e.ID(), err)
	}
	if out.IsEmpty() {
		return nil, fmt.Errorf("%w: %s", common.ErrEmptyExtraction, e.ID())
	}
	return out, nil
}

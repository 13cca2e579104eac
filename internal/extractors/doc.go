// Package extractors provides the full-content extraction capability.
//
// Each Extractor fetches one article URL and returns a models.Extraction.
// A Registry resolves the per-feed extractor id to an implementation,
// falling back to the no-op extractor for unknown or empty ids, and turns
// empty results into common.ErrEmptyExtraction so callers can account for
// them the same way as failures.
//
// Variants:
//   - none: feed-supplied content only
//   - readability: generic article extraction (go-readability) plus meta keywords
//   - selector: CSS selectors configured per site in a YAML file
//   - classifieds: selector extraction for listing pages with detail and map blocks
//   - reddit: the post JSON endpoint, delegating linked articles to readability
//
// Cached wraps any extractor with a Cache such as RedisCache.
package extractors

package extractors

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	userAgent      = "Mozilla/5.0 (compatible; feedfilter/1.0)"
	maxBodyBytes   = 8 << 20
	defaultTimeout = 30 * time.Second
)

func defaultClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// fetch GETs url and returns the body of a 200 response.
func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

func fetchDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	body, err := fetch(ctx, client, url)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

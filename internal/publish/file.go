package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FilePublisher writes documents below a root directory.
type FilePublisher struct {
	root string
}

func NewFilePublisher(root string) *FilePublisher {
	return &FilePublisher{root: root}
}

// Publish replaces the feed document atomically.
func (p *FilePublisher) Publish(ctx context.Context, doc *Document) error {
	data, err := encode(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	path := filepath.Join(p.root, filepath.FromSlash(Key(doc.FeedID)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".articles-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// Path returns where the document of feedID is written.
func (p *FilePublisher) Path(feedID int64) string {
	return filepath.Join(p.root, filepath.FromSlash(Key(feedID)))
}

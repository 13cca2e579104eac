package build

import (
	"strings"

	"github.com/dmitrijs2005/feedfilter/internal/models"
)

const (
	defaultConcurrency    = 1
	defaultUpsertAttempts = 3
)

// Options selects and tunes one feed build.
type Options struct {
	// EntryIndex admits only the entry at this 1-based position.
	EntryIndex int
	// URLContains admits entries whose link contains it or is contained in it.
	URLContains string
	// MaxEntries admits only the first MaxEntries entries.
	MaxEntries int

	// Force re-extracts full content even when the stored record is current,
	// resetting the retry counter.
	Force bool

	// Concurrency is the number of entries processed at once. Values below
	// 1 mean sequential processing.
	Concurrency int
	// UpsertAttempts bounds how often an entry is re-read and reconciled
	// after losing a write race.
	UpsertAttempts int
}

func (o Options) concurrency() int {
	if o.Concurrency < 1 {
		return defaultConcurrency
	}
	return o.Concurrency
}

func (o Options) upsertAttempts() int {
	if o.UpsertAttempts < 1 {
		return defaultUpsertAttempts
	}
	return o.UpsertAttempts
}

// Admit reports whether entry passes the admission filters.
func (o Options) Admit(e models.Entry) bool {
	if o.EntryIndex > 0 && e.Index != o.EntryIndex {
		return false
	}
	if o.URLContains != "" && !strings.Contains(e.Link, o.URLContains) && !strings.Contains(o.URLContains, e.Link) {
		return false
	}
	if o.MaxEntries > 0 && e.Index > o.MaxEntries {
		return false
	}
	return true
}

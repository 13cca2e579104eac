package build

import (
	"fmt"

	"github.com/dmitrijs2005/feedfilter/internal/common"
)

// EntryError is the failure of one entry. It never aborts sibling entries.
type EntryError struct {
	Index     int
	Link      string
	Title     string
	Err       error
	Retryable bool
}

func newEntryError(index int, link, title string, err error) EntryError {
	return EntryError{Index: index, Link: link, Title: title, Err: err, Retryable: common.IsRetryable(err)}
}

func (e EntryError) Error() string {
	return fmt.Sprintf("entry %d (%s): %v", e.Index, e.Link, e.Err)
}

func (e EntryError) Unwrap() error {
	return e.Err
}

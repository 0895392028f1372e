// Package novakv is the top-level facade over the page layer: page ids,
// the sorted freelist merge and the mapped page file.
package novakv

import (
	"github.com/tuannm99/novakv/internal/freelist"
	"github.com/tuannm99/novakv/internal/page"
	"github.com/tuannm99/novakv/internal/storage"
)

type (
	PageID  = page.PageID
	TxID    = page.TxID
	Page    = page.Page
	Meta    = page.Meta
	Pager   = storage.Pager
	Options = storage.Options
)

var (
	ErrCorrupt       = page.ErrCorrupt
	ErrInvalidAccess = page.ErrInvalidAccess
)

// Merge returns the sorted union of two ascending, disjoint id lists.
func Merge(a, b []PageID) []PageID {
	return freelist.Merge(a, b)
}

// Open opens or creates a database file. opts may be nil.
func Open(path string, opts *Options) (*Pager, error) {
	return storage.Open(path, opts)
}

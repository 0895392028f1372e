package storage

import "errors"

const (
	FileMode0644 = 0o644
	FileMode0664 = 0o664
	FileMode0755 = 0o755
)

// Fixed page ids of a freshly initialised file.
const (
	metaPageID0    = 0
	metaPageID1    = 1
	freelistPageID = 2
	rootPageID     = 3

	initialPages = 4
)

var (
	ErrPageNotFound = errors.New("storage: page not found")
	ErrNoValidMeta  = errors.New("storage: no valid meta page")
	ErrPageSize     = errors.New("storage: page buffer is not a whole number of pages")
	ErrClosed       = errors.New("storage: pager is closed")
)

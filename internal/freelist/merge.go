package freelist

import (
	"errors"
	"fmt"

	"github.com/tuannm99/novakv/internal/page"
)

var (
	ErrUnsorted = errors.New("freelist: ids are not strictly ascending")
	ErrOverlap  = errors.New("freelist: id present in both inputs")
)

// Merge returns the sorted union of a and b, which must each be strictly
// ascending and disjoint. The result never aliases either input. On equal
// ids the one from a is emitted first.
func Merge(a, b []page.PageID) []page.PageID {
	if len(a) == 0 {
		return clone(b)
	}
	if len(b) == 0 {
		return clone(a)
	}
	dst := make([]page.PageID, len(a)+len(b))
	mergeInto(dst, a, b)
	return dst
}

// MergeChecked is Merge with the input preconditions verified first.
func MergeChecked(a, b []page.PageID) ([]page.PageID, error) {
	if err := CheckSorted(a); err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	if err := CheckSorted(b); err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}
	out := Merge(a, b)
	for i := 1; i < len(out); i++ {
		if out[i-1] == out[i] {
			return nil, fmt.Errorf("id %d: %w", out[i], ErrOverlap)
		}
	}
	return out, nil
}

// CheckSorted reports ErrUnsorted unless ids is strictly ascending.
func CheckSorted(ids []page.PageID) error {
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			return fmt.Errorf("at %d: %d then %d: %w", i, ids[i-1], ids[i], ErrUnsorted)
		}
	}
	return nil
}

// mergeInto writes the merge of a and b into dst, which must have room for
// len(a)+len(b) ids.
func mergeInto(dst, a, b []page.PageID) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			dst[k] = a[i]
			i++
		} else {
			dst[k] = b[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}

func clone(ids []page.PageID) []page.PageID {
	out := make([]page.PageID, len(ids))
	copy(out, ids)
	return out
}

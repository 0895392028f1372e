package page

import (
	"bytes"
	"fmt"
)

// BranchItem is one routing entry handed to WriteBranch.
type BranchItem struct {
	Key    []byte
	PageID PageID
}

// LeafItem is one key/value entry handed to WriteLeaf.
type LeafItem struct {
	Flags  uint32
	Key    []byte
	Value  []byte
	PageID PageID
}

// BranchSize is the byte size of a branch page holding items, header included.
func BranchSize(items []BranchItem) int {
	n := HeaderSize + len(items)*BranchElementSize
	for _, it := range items {
		n += len(it.Key)
	}
	return n
}

// LeafSize is the byte size of a leaf page holding items, header included.
func LeafSize(items []LeafItem) int {
	n := HeaderSize + len(items)*LeafElementSize
	for _, it := range items {
		n += len(it.Key) + len(it.Value)
	}
	return n
}

// prepare checks the element count, sizes the overflow and initialises the
// header. buf must hold (overflow+1)*pageSize bytes.
func prepare(buf []byte, pageSize int, id PageID, flag Flag, count, size int) (*Page, error) {
	if count > MaxCount {
		return nil, fmt.Errorf("write %s page %d: %d elements: %w", flag, id, count, ErrTooManyElements)
	}
	overflow, err := OverflowFor(size, pageSize)
	if err != nil {
		return nil, fmt.Errorf("write %s page %d: %w", flag, id, err)
	}
	if need := (overflow + 1) * pageSize; len(buf) < need {
		return nil, fmt.Errorf("write %s page %d: need %d bytes, have %d: %w",
			flag, id, need, len(buf), ErrShortBuffer)
	}
	p, err := Init(buf, id, flag)
	if err != nil {
		return nil, err
	}
	_ = p.SetCount(count)
	_ = p.SetOverflow(overflow)
	return p, nil
}

// WriteBranch lays out items on buf as branch page id. Element records come
// first, followed by the keys in the same order. Keys must be strictly
// ascending.
func WriteBranch(buf []byte, pageSize int, id PageID, items []BranchItem) (*Page, error) {
	for i := 1; i < len(items); i++ {
		if bytes.Compare(items[i-1].Key, items[i].Key) >= 0 {
			return nil, fmt.Errorf("write branch page %d: item %d: %w", id, i, ErrUnsortedKeys)
		}
	}
	p, err := prepare(buf, pageSize, id, BranchPageFlag, len(items), BranchSize(items))
	if err != nil {
		return nil, err
	}

	data := HeaderSize + len(items)*BranchElementSize
	for i, it := range items {
		off := HeaderSize + i*BranchElementSize
		putBranch(buf, off, BranchElement{
			Pos:     uint64(data - off),
			KeySize: uint64(len(it.Key)),
			PageID:  it.PageID,
		})
		data += copy(buf[data:], it.Key)
	}
	return p, nil
}

// WriteLeaf lays out items on buf as leaf page id. Each key is followed
// directly by its value. Keys must be strictly ascending.
func WriteLeaf(buf []byte, pageSize int, id PageID, items []LeafItem) (*Page, error) {
	for i := 1; i < len(items); i++ {
		if bytes.Compare(items[i-1].Key, items[i].Key) >= 0 {
			return nil, fmt.Errorf("write leaf page %d: item %d: %w", id, i, ErrUnsortedKeys)
		}
	}
	p, err := prepare(buf, pageSize, id, LeafPageFlag, len(items), LeafSize(items))
	if err != nil {
		return nil, err
	}

	data := HeaderSize + len(items)*LeafElementSize
	for i, it := range items {
		off := HeaderSize + i*LeafElementSize
		putLeaf(buf, off, LeafElement{
			Flags:     it.Flags,
			Pos:       uint64(data - off),
			KeySize:   uint64(len(it.Key)),
			ValueSize: uint64(len(it.Value)),
			PageID:    it.PageID,
		})
		data += copy(buf[data:], it.Key)
		data += copy(buf[data:], it.Value)
	}
	return p, nil
}

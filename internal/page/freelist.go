package page

import (
	"fmt"

	"github.com/tuannm99/novakv/internal/alias/bx"
)

// Freelist page body: a run of 8-byte page ids in ascending order. When
// there are MaxCount or more ids the header count is pinned to MaxCount and
// the first body slot carries the real length.

// FreelistSize is the byte size of a freelist page holding n ids.
func FreelistSize(n int) int {
	if n >= MaxCount {
		n++
	}
	return HeaderSize + n*FreelistIDSize
}

// FreelistIDs copies the ids stored on a freelist page.
func (p *Page) FreelistIDs() ([]PageID, error) {
	if err := p.expect(FreelistPageFlag); err != nil {
		return nil, err
	}
	start := HeaderSize
	n := uint64(p.Count())
	if n == MaxCount {
		if len(p.Buf) < HeaderSize+FreelistIDSize {
			return nil, fmt.Errorf("freelist page %d extended count: %w", p.ID(), ErrShortBuffer)
		}
		n = bx.U64At(p.Buf, HeaderSize)
		start += FreelistIDSize
	}
	if n == 0 {
		return nil, nil
	}
	if n > uint64(len(p.Buf)-start)/FreelistIDSize {
		return nil, fmt.Errorf("freelist page %d: %d ids, buffer %d: %w", p.ID(), n, len(p.Buf), ErrOutOfBounds)
	}
	out := make([]PageID, n)
	for i := range out {
		out[i] = PageID(bx.U64At(p.Buf, start+i*FreelistIDSize))
	}
	return out, nil
}

// WriteFreelist initialises buf as freelist page id holding ids.
func WriteFreelist(buf []byte, pageSize int, id PageID, ids []PageID) (*Page, error) {
	overflow, err := OverflowFor(FreelistSize(len(ids)), pageSize)
	if err != nil {
		return nil, fmt.Errorf("write freelist page %d: %w", id, err)
	}
	if need := (overflow + 1) * pageSize; len(buf) < need {
		return nil, fmt.Errorf("write freelist page %d: need %d bytes, have %d: %w",
			id, need, len(buf), ErrShortBuffer)
	}
	p, err := Init(buf, id, FreelistPageFlag)
	if err != nil {
		return nil, err
	}
	_ = p.SetOverflow(overflow)

	start := HeaderSize
	if len(ids) >= MaxCount {
		_ = p.SetCount(MaxCount)
		bx.PutU64At(buf, HeaderSize, uint64(len(ids)))
		start += FreelistIDSize
	} else {
		_ = p.SetCount(len(ids))
	}
	for i, v := range ids {
		bx.PutU64At(buf, start+i*FreelistIDSize, uint64(v))
	}
	return p, nil
}

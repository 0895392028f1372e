package page

import (
	"fmt"

	"github.com/tuannm99/novakv/internal/alias/bx"
)

// +------------------+ 0
// | Header (14B)     | page_id, flags, count, overflow
// +------------------+ 14
// | Body             | meta record | element records + payload | page ids
// |                  |
// +------------------+ (overflow+1) * page size
//
// Page is a read-only view over bytes owned by the caller, usually a
// memory mapping. Nothing returned from a Page outlives a remap of Buf.
type Page struct {
	Buf []byte
}

// Load wraps buf without copying. buf must hold at least a header.
func Load(buf []byte) (*Page, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("load header: len=%d: %w", len(buf), ErrShortBuffer)
	}
	return &Page{Buf: buf}, nil
}

// Init zeroes buf and writes a fresh header for id and kind.
func Init(buf []byte, id PageID, flag Flag) (*Page, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("init header: len=%d: %w", len(buf), ErrShortBuffer)
	}
	clear(buf)
	p := &Page{Buf: buf}
	p.setID(id)
	p.setFlags(flag)
	return p, nil
}

// ---- header getters/setters ----
func (p *Page) ID() PageID {
	return PageID(bx.U64At(p.Buf, offPageID))
}

func (p *Page) setID(id PageID) {
	bx.PutU64At(p.Buf, offPageID, uint64(id))
}

func (p *Page) Flags() Flag {
	return Flag(bx.U16At(p.Buf, offFlags))
}

func (p *Page) setFlags(f Flag) {
	bx.PutU16At(p.Buf, offFlags, uint16(f))
}

// Count is the raw header count. Freelist pages may store the real
// length in the body when it does not fit; see FreelistIDs.
func (p *Page) Count() int {
	return int(bx.U16At(p.Buf, offCount))
}

func (p *Page) SetCount(n int) error {
	if n < 0 || n > MaxCount {
		return fmt.Errorf("set count %d: %w", n, ErrTooManyElements)
	}
	bx.PutU16At(p.Buf, offCount, uint16(n))
	return nil
}

// Overflow is the number of extra contiguous pages after this one.
func (p *Page) Overflow() int {
	return int(bx.U16At(p.Buf, offOverflow))
}

func (p *Page) SetOverflow(n int) error {
	if n < 0 || n > MaxOverflow {
		return fmt.Errorf("set overflow %d: %w", n, ErrTooLarge)
	}
	bx.PutU16At(p.Buf, offOverflow, uint16(n))
	return nil
}

func (p *Page) IsBranch() bool   { return p.Flags() == BranchPageFlag }
func (p *Page) IsLeaf() bool     { return p.Flags() == LeafPageFlag }
func (p *Page) IsMeta() bool     { return p.Flags() == MetaPageFlag }
func (p *Page) IsFreelist() bool { return p.Flags() == FreelistPageFlag }

// Pages is the number of page slots this page occupies, itself included.
func (p *Page) Pages() int {
	return p.Overflow() + 1
}

// OverflowIDs lists the continuation page ids, which follow id contiguously.
func (p *Page) OverflowIDs() []PageID {
	n := p.Overflow()
	if n == 0 {
		return nil
	}
	id := p.ID()
	out := make([]PageID, n)
	for i := range out {
		out[i] = id + PageID(i) + 1
	}
	return out
}

func (p *Page) expect(f Flag) error {
	if got := p.Flags(); got != f {
		return fmt.Errorf("page %d is %s, want %s: %w", p.ID(), got, f, ErrWrongKind)
	}
	return nil
}

// CheckPageSize accepts powers of two between MinPageSize and MaxPageSize.
func CheckPageSize(n int) error {
	if n < MinPageSize || n > MaxPageSize || n&(n-1) != 0 {
		return fmt.Errorf("page size %d: want a power of two in [%d, %d]: %w",
			n, MinPageSize, MaxPageSize, ErrBadPageSize)
	}
	return nil
}

// OverflowFor returns the overflow count for a page of size bytes,
// header included. Zero means the page fits in one slot.
func OverflowFor(size, pageSize int) (int, error) {
	if pageSize < MinPageSize {
		return 0, fmt.Errorf("page size %d: %w", pageSize, ErrBadPageSize)
	}
	if size <= pageSize {
		return 0, nil
	}
	n := (size+pageSize-1)/pageSize - 1
	if n > MaxOverflow {
		return 0, fmt.Errorf("size %d at page size %d: %w", size, pageSize, ErrTooLarge)
	}
	return n, nil
}

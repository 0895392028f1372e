package page

import (
	"fmt"

	"github.com/tuannm99/novakv/internal/alias/bx"
)

// BranchElement routes keys >= Key to the child PageID.
// Pos is relative to the start of this element's own record.
type BranchElement struct {
	Pos     uint64
	KeySize uint64
	PageID  PageID

	off int // record offset within the page buffer
}

// LeafElement holds one key/value pair. The value starts right after the
// key. PageID is only meaningful when Flags has BucketLeafFlag.
type LeafElement struct {
	Flags     uint32
	Pos       uint64
	KeySize   uint64
	ValueSize uint64
	PageID    PageID

	off int
}

func (e LeafElement) IsBucket() bool {
	return e.Flags&BucketLeafFlag != 0
}

// elementOffset checks idx against count and the buffer, and returns the
// byte offset of record idx.
func (p *Page) elementOffset(idx, size int) (int, error) {
	if idx < 0 || idx >= p.Count() {
		return 0, fmt.Errorf("page %d element %d of %d: %w", p.ID(), idx, p.Count(), ErrIndexOutOfRange)
	}
	off := HeaderSize + idx*size
	if off+size > len(p.Buf) {
		return 0, fmt.Errorf("page %d element %d at %d: %w", p.ID(), idx, off, ErrShortBuffer)
	}
	return off, nil
}

// BranchElement decodes the branch record at idx.
func (p *Page) BranchElement(idx int) (BranchElement, error) {
	if err := p.expect(BranchPageFlag); err != nil {
		return BranchElement{}, err
	}
	off, err := p.elementOffset(idx, BranchElementSize)
	if err != nil {
		return BranchElement{}, err
	}
	return decodeBranch(p.Buf, off), nil
}

// BranchElements decodes all branch records in storage order.
// It returns nil for an empty page.
func (p *Page) BranchElements() ([]BranchElement, error) {
	if err := p.expect(BranchPageFlag); err != nil {
		return nil, err
	}
	n := p.Count()
	if n == 0 {
		return nil, nil
	}
	if _, err := p.elementOffset(n-1, BranchElementSize); err != nil {
		return nil, err
	}
	out := make([]BranchElement, n)
	for i := range out {
		out[i] = decodeBranch(p.Buf, HeaderSize+i*BranchElementSize)
	}
	return out, nil
}

// LeafElement decodes the leaf record at idx.
func (p *Page) LeafElement(idx int) (LeafElement, error) {
	if err := p.expect(LeafPageFlag); err != nil {
		return LeafElement{}, err
	}
	off, err := p.elementOffset(idx, LeafElementSize)
	if err != nil {
		return LeafElement{}, err
	}
	return decodeLeaf(p.Buf, off), nil
}

// LeafElements decodes all leaf records in storage order.
// It returns nil for an empty page.
func (p *Page) LeafElements() ([]LeafElement, error) {
	if err := p.expect(LeafPageFlag); err != nil {
		return nil, err
	}
	n := p.Count()
	if n == 0 {
		return nil, nil
	}
	if _, err := p.elementOffset(n-1, LeafElementSize); err != nil {
		return nil, err
	}
	out := make([]LeafElement, n)
	for i := range out {
		out[i] = decodeLeaf(p.Buf, HeaderSize+i*LeafElementSize)
	}
	return out, nil
}

// BranchKey returns the key of e as a slice of the page buffer.
func (p *Page) BranchKey(e BranchElement) ([]byte, error) {
	return p.span(e.off, e.Pos, e.KeySize)
}

// LeafKey returns the key of e as a slice of the page buffer.
func (p *Page) LeafKey(e LeafElement) ([]byte, error) {
	return p.span(e.off, e.Pos, e.KeySize)
}

// LeafValue returns the value of e as a slice of the page buffer.
func (p *Page) LeafValue(e LeafElement) ([]byte, error) {
	if e.Pos > ^uint64(0)-e.KeySize {
		return nil, fmt.Errorf("page %d value pos %d+%d: %w", p.ID(), e.Pos, e.KeySize, ErrOutOfBounds)
	}
	return p.span(e.off, e.Pos+e.KeySize, e.ValueSize)
}

// span resolves [recordOff+pos, recordOff+pos+n) against the buffer.
func (p *Page) span(recordOff int, pos, n uint64) ([]byte, error) {
	base, size := uint64(recordOff), uint64(len(p.Buf))
	if base > size || pos > size-base {
		return nil, fmt.Errorf("page %d span at %d+%d: %w", p.ID(), recordOff, pos, ErrOutOfBounds)
	}
	b, ok := bx.Span(p.Buf, base+pos, n)
	if !ok {
		return nil, fmt.Errorf("page %d span at %d+%d len %d, buffer %d: %w",
			p.ID(), recordOff, pos, n, len(p.Buf), ErrOutOfBounds)
	}
	return b, nil
}

func decodeBranch(b []byte, off int) BranchElement {
	return BranchElement{
		Pos:     bx.U64At(b, off+offBranchPos),
		KeySize: bx.U64At(b, off+offBranchKeySize),
		PageID:  PageID(bx.U64At(b, off+offBranchPageID)),
		off:     off,
	}
}

func decodeLeaf(b []byte, off int) LeafElement {
	return LeafElement{
		Flags:     bx.U32At(b, off+offLeafFlags),
		Pos:       bx.U64At(b, off+offLeafPos),
		KeySize:   bx.U64At(b, off+offLeafKeySize),
		ValueSize: bx.U64At(b, off+offLeafValueSize),
		PageID:    PageID(bx.U64At(b, off+offLeafPageID)),
		off:       off,
	}
}

func putBranch(b []byte, off int, e BranchElement) {
	bx.PutU64At(b, off+offBranchPos, e.Pos)
	bx.PutU64At(b, off+offBranchKeySize, e.KeySize)
	bx.PutU64At(b, off+offBranchPageID, uint64(e.PageID))
}

func putLeaf(b []byte, off int, e LeafElement) {
	bx.PutU32At(b, off+offLeafFlags, e.Flags)
	bx.PutU64At(b, off+offLeafPos, e.Pos)
	bx.PutU64At(b, off+offLeafKeySize, e.KeySize)
	bx.PutU64At(b, off+offLeafValueSize, e.ValueSize)
	bx.PutU64At(b, off+offLeafPageID, uint64(e.PageID))
}

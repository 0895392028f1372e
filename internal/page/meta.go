package page

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/tuannm99/novakv/internal/alias/bx"
)

// Meta is the root record of a database file. Two copies live on pages 0
// and 1; which one wins is decided by the storage layer.
type Meta struct {
	Magic    uint32
	Version  uint32
	PageSize uint32
	Flags    uint32
	Freelist PageID
	Root     PageID
	TxID     TxID
	Checksum uint64
}

// DecodeMeta reads a meta record from the first MetaSize bytes of b.
func DecodeMeta(b []byte) (Meta, error) {
	if len(b) < MetaSize {
		return Meta{}, fmt.Errorf("decode meta: len=%d: %w", len(b), ErrShortBuffer)
	}
	return Meta{
		Magic:    bx.U32At(b, offMetaMagic),
		Version:  bx.U32At(b, offMetaVersion),
		PageSize: bx.U32At(b, offMetaPageSize),
		Flags:    bx.U32At(b, offMetaFlags),
		Freelist: PageID(bx.U64At(b, offMetaFreelist)),
		Root:     PageID(bx.U64At(b, offMetaRoot)),
		TxID:     TxID(bx.U64At(b, offMetaTxID)),
		Checksum: bx.U64At(b, offMetaChecksum),
	}, nil
}

// Encode writes m, checksum field included as-is, into b.
func (m Meta) Encode(b []byte) error {
	if len(b) < MetaSize {
		return fmt.Errorf("encode meta: len=%d: %w", len(b), ErrShortBuffer)
	}
	bx.PutU32At(b, offMetaMagic, m.Magic)
	bx.PutU32At(b, offMetaVersion, m.Version)
	bx.PutU32At(b, offMetaPageSize, m.PageSize)
	bx.PutU32At(b, offMetaFlags, m.Flags)
	bx.PutU64At(b, offMetaFreelist, uint64(m.Freelist))
	bx.PutU64At(b, offMetaRoot, uint64(m.Root))
	bx.PutU64At(b, offMetaTxID, uint64(m.TxID))
	bx.PutU64At(b, offMetaChecksum, m.Checksum)
	return nil
}

// Sum64 hashes every field that precedes the checksum.
func (m Meta) Sum64() uint64 {
	var b [MetaSize]byte
	_ = m.Encode(b[:])
	return xxhash.Sum64(b[:offMetaChecksum])
}

// Validate reports an ErrCorrupt-wrapped error when the record is not a
// usable meta for a file mapped with pageSize.
func (m Meta) Validate(pageSize int) error {
	if m.Magic != Magic {
		return fmt.Errorf("magic 0x%08x: %w", m.Magic, ErrInvalidMagic)
	}
	if m.Version != Version {
		return fmt.Errorf("version %d, want %d: %w", m.Version, Version, ErrVersionMismatch)
	}
	if int(m.PageSize) != pageSize {
		return fmt.Errorf("page size %d, want %d: %w", m.PageSize, pageSize, ErrPageSizeMismatch)
	}
	if sum := m.Sum64(); m.Checksum != sum {
		return fmt.Errorf("checksum 0x%016x, computed 0x%016x: %w", m.Checksum, sum, ErrChecksum)
	}
	return nil
}

// Meta decodes the meta record following the header. It does not validate.
func (p *Page) Meta() (Meta, error) {
	if err := p.expect(MetaPageFlag); err != nil {
		return Meta{}, err
	}
	return DecodeMeta(p.Buf[HeaderSize:])
}

// WriteMeta initialises buf as meta page id holding m with a fresh checksum.
func WriteMeta(buf []byte, id PageID, m Meta) (*Page, error) {
	if len(buf) < HeaderSize+MetaSize {
		return nil, fmt.Errorf("write meta: len=%d: %w", len(buf), ErrShortBuffer)
	}
	p, err := Init(buf, id, MetaPageFlag)
	if err != nil {
		return nil, err
	}
	m.Checksum = m.Sum64()
	if err := m.Encode(buf[HeaderSize:]); err != nil {
		return nil, err
	}
	return p, nil
}

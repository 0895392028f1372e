package page

import "fmt"

const (
	OneKB = 1 << 10

	// DefaultPageSize is used when the configuration does not name one.
	DefaultPageSize = 4 * OneKB

	// MinPageSize is the smallest page able to hold a header and a meta record.
	MinPageSize = 512

	// MaxPageSize is the largest accepted page size.
	MaxPageSize = 64 * OneKB

	Magic   uint32 = 0xED0CDAED
	Version uint32 = 2

	// MinKeysPerPage is the fill floor the tree layer splits and merges around.
	MinKeysPerPage = 2

	// MaxCount is the largest value the header count field can hold.
	MaxCount = 0xFFFF

	// MaxOverflow is the largest value the header overflow field can hold.
	MaxOverflow = 0xFFFF
)

// Header layout (little-endian):
//
//	[0..8)   page_id
//	[8..10)  flags
//	[10..12) count
//	[12..14) overflow
const (
	offPageID   = 0
	offFlags    = 8
	offCount    = 10
	offOverflow = 12

	HeaderSize = 14
)

// Meta layout, relative to the end of the header.
const (
	offMetaMagic    = 0
	offMetaVersion  = 4
	offMetaPageSize = 8
	offMetaFlags    = 12
	offMetaFreelist = 16
	offMetaRoot     = 24
	offMetaTxID     = 32
	offMetaChecksum = 40

	MetaSize = 48
)

// Branch element layout, relative to the element record.
const (
	offBranchPos     = 0
	offBranchKeySize = 8
	offBranchPageID  = 16

	BranchElementSize = 24
)

// Leaf element layout, relative to the element record.
const (
	offLeafFlags     = 0
	offLeafPos       = 4
	offLeafKeySize   = 12
	offLeafValueSize = 20
	offLeafPageID    = 28

	LeafElementSize = 36
)

// FreelistIDSize is the width of one page id on a freelist page.
const FreelistIDSize = 8

// PageID addresses a page in page-size units from the start of the file.
type PageID uint64

// TxID identifies the transaction that produced a meta page.
type TxID uint64

// Flag is the page kind discriminant stored in the header.
type Flag uint16

const (
	BranchPageFlag   Flag = 0x01
	LeafPageFlag     Flag = 0x02
	MetaPageFlag     Flag = 0x04
	FreelistPageFlag Flag = 0x10
)

// BucketLeafFlag marks a leaf element whose value is a nested bucket.
const BucketLeafFlag uint32 = 0x01

// Valid reports whether exactly one known kind bit is set.
func (f Flag) Valid() bool {
	switch f {
	case BranchPageFlag, LeafPageFlag, MetaPageFlag, FreelistPageFlag:
		return true
	default:
		return false
	}
}

func (f Flag) String() string {
	switch f {
	case BranchPageFlag:
		return "branch"
	case LeafPageFlag:
		return "leaf"
	case MetaPageFlag:
		return "meta"
	case FreelistPageFlag:
		return "freelist"
	default:
		return fmt.Sprintf("unknown(0x%04x)", uint16(f))
	}
}

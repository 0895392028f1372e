// stand for bytes helper
//
// Every on-disk integer in a novakv file is little-endian. Readers that take
// an offset do not bounds check; call Fits or Span first when the offset
// comes from page contents rather than from a layout constant.
package bx

import "encoding/binary"

var LE = binary.LittleEndian

// --- read ---
func U16(b []byte) uint16 { return LE.Uint16(b) }
func U32(b []byte) uint32 { return LE.Uint32(b) }
func U64(b []byte) uint64 { return LE.Uint64(b) }

// --- write ---
func PutU16(b []byte, v uint16) { LE.PutUint16(b, v) }
func PutU32(b []byte, v uint32) { LE.PutUint32(b, v) }
func PutU64(b []byte, v uint64) { LE.PutUint64(b, v) }

// --- At (offset) ---
func U16At(b []byte, off int) uint16       { return U16(b[off:]) }
func U32At(b []byte, off int) uint32       { return U32(b[off:]) }
func U64At(b []byte, off int) uint64       { return U64(b[off:]) }
func PutU16At(b []byte, off int, v uint16) { PutU16(b[off:], v) }
func PutU32At(b []byte, off int, v uint32) { PutU32(b[off:], v) }
func PutU64At(b []byte, off int, v uint64) { PutU64(b[off:], v) }

// Fits reports whether [off, off+n) lies inside b.
// off and n are uint64 so sizes decoded from disk cannot wrap.
func Fits(b []byte, off, n uint64) bool {
	size := uint64(len(b))
	return off <= size && n <= size-off
}

// Span returns b[off:off+n] without copying, or false when the range
// does not fit.
func Span(b []byte, off, n uint64) ([]byte, bool) {
	if !Fits(b, off, n) {
		return nil, false
	}
	return b[off : off+n : off+n], true
}

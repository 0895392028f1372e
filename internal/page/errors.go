package page

import (
	"errors"
	"fmt"
)

// ErrInvalidAccess is matched by every caller contract violation.
var ErrInvalidAccess = errors.New("page: invalid access")

var (
	ErrShortBuffer     = fmt.Errorf("%w: buffer too small", ErrInvalidAccess)
	ErrWrongKind       = fmt.Errorf("%w: wrong page kind", ErrInvalidAccess)
	ErrIndexOutOfRange = fmt.Errorf("%w: element index out of range", ErrInvalidAccess)
	ErrOutOfBounds     = fmt.Errorf("%w: span exceeds buffer", ErrInvalidAccess)
)

// ErrCorrupt is matched by every integrity failure on a meta page.
var ErrCorrupt = errors.New("page: corrupt or incompatible page")

var (
	ErrInvalidMagic     = fmt.Errorf("%w: invalid magic", ErrCorrupt)
	ErrVersionMismatch  = fmt.Errorf("%w: version mismatch", ErrCorrupt)
	ErrPageSizeMismatch = fmt.Errorf("%w: page size mismatch", ErrCorrupt)
	ErrChecksum         = fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
)

// Writer errors.
var (
	ErrTooManyElements = errors.New("page: too many elements for count field")
	ErrTooLarge        = errors.New("page: body needs more overflow pages than the header can record")
	ErrUnsortedKeys    = errors.New("page: keys must be strictly ascending")
	ErrBadPageSize     = errors.New("page: invalid page size")
)

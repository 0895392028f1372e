package freelist

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/tuannm99/novakv/internal/page"
)

var (
	ErrDoubleFree   = errors.New("freelist: page already free")
	ErrReservedPage = errors.New("freelist: meta pages cannot be freed")
)

// Freelist tracks pages that are free for reuse and pages freed by
// transactions that may still be visible to older readers.
//
// A Freelist is owned by the single writer transaction and is not safe
// for concurrent use.
type Freelist struct {
	ids     []page.PageID               // sorted, ready for reuse
	pending map[page.TxID][]page.PageID // freed by txid, not yet released
	cache   *roaring64.Bitmap           // every id in ids or pending

	strict bool
	log    *slog.Logger
}

type Option func(*Freelist)

// WithStrict verifies ordering and disjointness on every merge and read.
func WithStrict(strict bool) Option {
	return func(f *Freelist) { f.strict = strict }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Freelist) {
		if l != nil {
			f.log = l
		}
	}
}

func New(opts ...Option) *Freelist {
	f := &Freelist{
		pending: make(map[page.TxID][]page.PageID),
		cache:   roaring64.New(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FreeCount is the number of ids ready for allocation.
func (f *Freelist) FreeCount() int { return len(f.ids) }

// PendingCount is the number of ids waiting on a release.
func (f *Freelist) PendingCount() int {
	n := 0
	for _, ids := range f.pending {
		n += len(ids)
	}
	return n
}

// Count is every id the freelist page has to persist.
func (f *Freelist) Count() int { return f.FreeCount() + f.PendingCount() }

// Size is the byte size of the freelist page, header included.
func (f *Freelist) Size() int { return page.FreelistSize(f.Count()) }

// Freed reports whether id is free or pending.
func (f *Freelist) Freed(id page.PageID) bool {
	return f.cache.Contains(uint64(id))
}

// IDs returns a copy of the ids ready for allocation.
func (f *Freelist) IDs() []page.PageID { return clone(f.ids) }

// Free queues p and its overflow pages for release once txid is no longer
// visible to any reader.
func (f *Freelist) Free(txid page.TxID, p *page.Page) error {
	start := p.ID()
	if start <= 1 {
		return fmt.Errorf("free page %d: %w", start, ErrReservedPage)
	}
	end := start + page.PageID(p.Overflow())
	for id := start; id <= end; id++ {
		if f.cache.Contains(uint64(id)) {
			return fmt.Errorf("free page %d (span %d-%d) in tx %d: %w", id, start, end, txid, ErrDoubleFree)
		}
	}

	ids := f.pending[txid]
	for id := start; id <= end; id++ {
		ids = append(ids, id)
		f.cache.Add(uint64(id))
	}
	f.pending[txid] = ids

	f.log.Debug("freelist.free",
		"txid", txid,
		"pageID", start,
		"overflow", p.Overflow(),
	)
	return nil
}

// Release moves the pending ids of every transaction up to and including
// txid into the free ids.
func (f *Freelist) Release(txid page.TxID) error {
	var released []page.PageID
	var done []page.TxID
	for tid, ids := range f.pending {
		if tid <= txid {
			released = append(released, ids...)
			done = append(done, tid)
		}
	}
	if len(released) == 0 {
		return nil
	}
	slices.Sort(released)

	merged, err := f.merge(f.ids, released)
	if err != nil {
		return fmt.Errorf("release tx %d: %w", txid, err)
	}
	f.ids = merged
	for _, tid := range done {
		delete(f.pending, tid)
	}

	f.log.Debug("freelist.release",
		"txid", txid,
		"released", len(released),
		"free", len(f.ids),
	)
	return nil
}

// Rollback forgets the pages txid freed; they stay allocated.
func (f *Freelist) Rollback(txid page.TxID) {
	ids, ok := f.pending[txid]
	if !ok {
		return
	}
	for _, id := range ids {
		f.cache.Remove(uint64(id))
	}
	delete(f.pending, txid)

	f.log.Debug("freelist.rollback",
		"txid", txid,
		"restored", len(ids),
	)
}

// Allocate takes the first run of n contiguous free ids and returns its
// start. It returns 0 when no run is long enough.
func (f *Freelist) Allocate(n int) page.PageID {
	if n <= 0 || len(f.ids) == 0 {
		return 0
	}

	var initial, previd page.PageID
	for i, id := range f.ids {
		if id <= 1 {
			// meta pages never enter the freelist through Free or Read
			continue
		}
		if previd == 0 || id-previd != 1 {
			initial = id
		}

		if id-initial+1 == page.PageID(n) {
			start := i - n + 1
			f.ids = slices.Delete(f.ids, start, i+1)
			for k := page.PageID(0); k < page.PageID(n); k++ {
				f.cache.Remove(uint64(initial + k))
			}
			f.log.Debug("freelist.allocate",
				"pageID", initial,
				"n", n,
				"free", len(f.ids),
			)
			return initial
		}
		previd = id
	}
	return 0
}

// Copyall writes every free and pending id, sorted, into dst.
// dst must have room for Count ids.
func (f *Freelist) Copyall(dst []page.PageID) {
	m := make([]page.PageID, 0, f.PendingCount())
	for _, ids := range f.pending {
		m = append(m, ids...)
	}
	slices.Sort(m)
	mergeInto(dst, f.ids, m)
}

// Read replaces the free ids with the ids stored on a freelist page.
// Pending ids are dropped.
func (f *Freelist) Read(p *page.Page) error {
	ids, err := p.FreelistIDs()
	if err != nil {
		return fmt.Errorf("read freelist: %w", err)
	}
	if err := CheckSorted(ids); err != nil {
		if f.strict {
			return fmt.Errorf("read freelist page %d: %w", p.ID(), err)
		}
		slices.Sort(ids)
		ids = slices.Compact(ids)
	}
	for _, id := range ids {
		if id <= 1 {
			return fmt.Errorf("read freelist page %d: id %d: %w", p.ID(), id, ErrReservedPage)
		}
	}

	f.ids = ids
	f.pending = make(map[page.TxID][]page.PageID)
	f.reindex()

	f.log.Debug("freelist.read",
		"pageID", p.ID(),
		"free", len(f.ids),
	)
	return nil
}

// Reload reads p and then drops any id that is still pending, so a
// rolled-back writer does not hand out pages an open transaction freed.
func (f *Freelist) Reload(p *page.Page) error {
	pending := f.pending
	if err := f.Read(p); err != nil {
		return err
	}

	pcache := make(map[page.PageID]struct{})
	for _, ids := range pending {
		for _, id := range ids {
			pcache[id] = struct{}{}
		}
	}
	a := f.ids[:0]
	for _, id := range f.ids {
		if _, ok := pcache[id]; !ok {
			a = append(a, id)
		}
	}
	f.ids = a
	f.pending = pending
	f.reindex()
	return nil
}

// Write persists every free and pending id onto buf as freelist page id.
// Pending ids are written too so a crash before release leaks nothing.
func (f *Freelist) Write(buf []byte, pageSize int, id page.PageID) (*page.Page, error) {
	all := make([]page.PageID, f.Count())
	f.Copyall(all)
	p, err := page.WriteFreelist(buf, pageSize, id, all)
	if err != nil {
		return nil, fmt.Errorf("write freelist: %w", err)
	}
	return p, nil
}

func (f *Freelist) merge(a, b []page.PageID) ([]page.PageID, error) {
	if f.strict {
		return MergeChecked(a, b)
	}
	return Merge(a, b), nil
}

func (f *Freelist) reindex() {
	f.cache.Clear()
	for _, id := range f.ids {
		f.cache.Add(uint64(id))
	}
	for _, ids := range f.pending {
		for _, id := range ids {
			f.cache.Add(uint64(id))
		}
	}
}

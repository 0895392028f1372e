package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/tuannm99/novakv/internal/alias/util"
	"github.com/tuannm99/novakv/internal/freelist"
	"github.com/tuannm99/novakv/internal/mmap"
	"github.com/tuannm99/novakv/internal/page"
)

type Options struct {
	// PageSize is used when creating a file. Existing files keep the page
	// size recorded in their meta pages.
	PageSize int

	// StrictFreelist turns on precondition checks for freelist merges.
	StrictFreelist bool

	Logger *slog.Logger
}

// Pager owns a database file and its read-only mapping. Pages returned by
// Page alias the mapping. WritePage and Close unmap it, so touching an
// earlier view afterwards faults and kills the process; callers must drop
// or copy views before either call.
type Pager struct {
	path     string
	file     *os.File
	mapping  *mmap.Mapping
	pageSize int
	strict   bool
	log      *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the database file at path.
func Open(path string, opts *Options) (*Pager, error) {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = page.DefaultPageSize
	}
	if err := page.CheckPageSize(pageSize); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, FileMode0664)
	if err != nil {
		return nil, fmt.Errorf("open database file: %w", err)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		util.CloseLogged(log, path, file)
		return nil, fmt.Errorf("get file info: %w", err)
	}

	p := &Pager{
		path:     path,
		file:     file,
		pageSize: pageSize,
		strict:   opts.StrictFreelist,
		log:      log,
	}

	if fileInfo.Size() == 0 {
		if err := p.init(); err != nil {
			util.CloseLogged(log, path, file)
			return nil, err
		}
	} else if ps, ok := p.recordedPageSize(); ok {
		p.pageSize = ps
	}

	if err := p.remap(); err != nil {
		util.CloseLogged(log, path, file)
		return nil, err
	}

	m, err := p.Meta()
	if err != nil {
		util.CloseLogged(log, path, p)
		return nil, err
	}

	log.Debug("storage.open",
		"path", path,
		"pageSize", p.pageSize,
		"pages", p.PageCount(),
		"txid", m.TxID,
		"root", m.Root,
	)
	return p, nil
}

// init writes two meta pages, an empty freelist and an empty leaf root.
func (p *Pager) init() error {
	buf := make([]byte, initialPages*p.pageSize)
	at := func(id page.PageID) []byte {
		off := int(id) * p.pageSize
		return buf[off : off+p.pageSize]
	}

	for i, id := range []page.PageID{metaPageID0, metaPageID1} {
		m := page.Meta{
			Magic:    page.Magic,
			Version:  page.Version,
			PageSize: uint32(p.pageSize),
			Freelist: freelistPageID,
			Root:     rootPageID,
			TxID:     page.TxID(i),
		}
		if _, err := page.WriteMeta(at(id), id, m); err != nil {
			return fmt.Errorf("init meta %d: %w", id, err)
		}
	}
	if _, err := page.WriteFreelist(at(freelistPageID), p.pageSize, freelistPageID, nil); err != nil {
		return fmt.Errorf("init freelist: %w", err)
	}
	if _, err := page.WriteLeaf(at(rootPageID), p.pageSize, rootPageID, nil); err != nil {
		return fmt.Errorf("init root: %w", err)
	}

	if _, err := p.file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("write initial pages: %w", err)
	}
	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("sync initial pages: %w", err)
	}

	p.log.Info("storage.init",
		"path", p.path,
		"pageSize", p.pageSize,
	)
	return nil
}

// recordedPageSize reads the page size stored in the file. Meta 0 sits at
// offset 0; when it is unreadable meta 1 is probed at each candidate size.
func (p *Pager) recordedPageSize() (int, bool) {
	if ps, ok := p.metaPageSizeAt(0); ok {
		return ps, true
	}
	for ps := page.MinPageSize; ps <= page.MaxPageSize; ps *= 2 {
		if got, ok := p.metaPageSizeAt(int64(ps)); ok && got == ps {
			return ps, true
		}
	}
	return 0, false
}

func (p *Pager) metaPageSizeAt(off int64) (int, bool) {
	buf := make([]byte, page.HeaderSize+page.MetaSize)
	if _, err := p.file.ReadAt(buf, off); err != nil {
		return 0, false
	}
	pg, err := page.Load(buf)
	if err != nil {
		return 0, false
	}
	m, err := pg.Meta()
	if err != nil || page.CheckPageSize(int(m.PageSize)) != nil {
		return 0, false
	}
	if err := m.Validate(int(m.PageSize)); err != nil {
		return 0, false
	}
	return int(m.PageSize), true
}

func (p *Pager) remap() error {
	if p.mapping != nil {
		if err := p.mapping.Close(); err != nil {
			return fmt.Errorf("unmap: %w", err)
		}
		p.mapping = nil
	}
	m, err := mmap.Open(p.path)
	if err != nil {
		return fmt.Errorf("mmap %s: %w", p.path, err)
	}
	p.mapping = m
	return nil
}

// Page returns a view over page id and its overflow pages.
func (p *Pager) Page(id page.PageID) (*page.Page, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pageLocked(id)
}

func (p *Pager) pageLocked(id page.PageID) (*page.Page, error) {
	if p.mapping == nil {
		return nil, ErrClosed
	}
	if uint64(id) >= uint64(p.pageCountLocked()) {
		return nil, fmt.Errorf("page %d of %d: %w", id, p.pageCountLocked(), ErrPageNotFound)
	}
	off := int(id) * p.pageSize
	head, err := p.mapping.Slice(off, p.pageSize)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", id, err)
	}
	pg, err := page.Load(head)
	if err != nil {
		return nil, err
	}
	if pg.Overflow() == 0 {
		return pg, nil
	}

	full, err := p.mapping.Slice(off, pg.Pages()*p.pageSize)
	if err != nil {
		return nil, fmt.Errorf("page %d overflow %d: %w", id, pg.Overflow(), ErrPageNotFound)
	}
	return &page.Page{Buf: full}, nil
}

// Meta returns the newest meta copy that validates. When one copy is
// corrupt the other is used; when both are, the errors are joined.
func (p *Pager) Meta() (page.Meta, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var metas [2]page.Meta
	var errs [2]error
	for i, id := range []page.PageID{metaPageID0, metaPageID1} {
		pg, err := p.pageLocked(id)
		if err != nil {
			errs[i] = err
			continue
		}
		m, err := pg.Meta()
		if err == nil {
			err = m.Validate(p.pageSize)
		}
		metas[i], errs[i] = m, err
	}

	switch {
	case errs[0] == nil && errs[1] == nil:
		if metas[1].TxID > metas[0].TxID {
			return metas[1], nil
		}
		return metas[0], nil
	case errs[0] == nil:
		p.log.Warn("storage.meta.fallback", "bad", metaPageID1, "err", errs[1])
		return metas[0], nil
	case errs[1] == nil:
		p.log.Warn("storage.meta.fallback", "bad", metaPageID0, "err", errs[0])
		return metas[1], nil
	default:
		return page.Meta{}, fmt.Errorf("%w: %w", ErrNoValidMeta, errors.Join(errs[0], errs[1]))
	}
}

// Freelist loads the freelist page named by the current meta.
func (p *Pager) Freelist() (*freelist.Freelist, error) {
	m, err := p.Meta()
	if err != nil {
		return nil, err
	}
	pg, err := p.Page(m.Freelist)
	if err != nil {
		return nil, fmt.Errorf("load freelist: %w", err)
	}
	f := freelist.New(freelist.WithStrict(p.strict), freelist.WithLogger(p.log))
	if err := f.Read(pg); err != nil {
		return nil, err
	}
	return f, nil
}

// WritePage writes buf at the page id found in its header and remaps.
// buf must be a whole number of pages.
func (p *Pager) WritePage(buf []byte) error {
	if len(buf) == 0 || len(buf)%p.pageSize != 0 {
		return fmt.Errorf("write %d bytes at page size %d: %w", len(buf), p.pageSize, ErrPageSize)
	}
	pg, err := page.Load(buf)
	if err != nil {
		return err
	}
	if pg.Pages()*p.pageSize != len(buf) {
		return fmt.Errorf("page %d spans %d pages, buffer holds %d: %w",
			pg.ID(), pg.Pages(), len(buf)/p.pageSize, ErrPageSize)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mapping == nil {
		return ErrClosed
	}

	off := int64(pg.ID()) * int64(p.pageSize)
	if _, err := p.file.WriteAt(buf, off); err != nil {
		return fmt.Errorf("write page %d: %w", pg.ID(), err)
	}
	if err := p.remap(); err != nil {
		return err
	}

	p.log.Debug("storage.page.written",
		"pageID", pg.ID(),
		"kind", pg.Flags(),
		"pages", pg.Pages(),
	)
	return nil
}

func (p *Pager) Sync() error {
	return p.file.Sync()
}

// Close unmaps and closes the file.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	if p.mapping != nil {
		err = p.mapping.Close()
		p.mapping = nil
	}
	if cerr := p.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// PageCount is the number of whole pages currently mapped.
func (p *Pager) PageCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pageCountLocked()
}

func (p *Pager) pageCountLocked() int {
	if p.mapping == nil {
		return 0
	}
	return p.mapping.Size() / p.pageSize
}

func (p *Pager) PageSize() int {
	return p.pageSize
}

func (p *Pager) Path() string {
	return p.path
}

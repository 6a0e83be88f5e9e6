package verdin

import (
	"github.com/cockroachdb/errors"

	"github.com/verdindb/verdin/internal/fastmap"
	"github.com/verdindb/verdin/mmap"
)

// PageSource resolves page numbers to loaded pages. The read path uses
// it to follow overflow indirection; callers use it to fetch the pages
// they position cursors on. Implementations keep returned pages stable
// until the source is closed.
type PageSource interface {
	Page(no uint32) (*Page, error)
}

// MemSource is an in-memory page source.
type MemSource struct {
	pages map[uint32]*Page
}

// NewMemSource creates an empty in-memory source.
func NewMemSource() *MemSource {
	return &MemSource{pages: make(map[uint32]*Page)}
}

// Add registers a loaded page under its own page number.
func (s *MemSource) Add(p *Page) {
	s.pages[p.PageNo()] = p
}

// AddImage loads a page image and registers it.
func (s *MemSource) AddImage(data []byte) (*Page, error) {
	p, err := LoadPage(data)
	if err != nil {
		return nil, err
	}
	s.Add(p)
	return p, nil
}

// Page returns the page with the given number.
func (s *MemSource) Page(no uint32) (*Page, error) {
	p, ok := s.pages[no]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "page %d", no)
	}
	return p, nil
}

// FileSource serves fixed-size page images from a memory-mapped file:
// page n occupies bytes [n*pageSize, (n+1)*pageSize). Pages are
// validated on first access and cached.
type FileSource struct {
	m        *mmap.Map
	pageSize int
	numPages uint32
	cache    fastmap.Map[*Page]
	metrics  *Metrics
}

// OpenFileSource maps a page file. The file length must be a whole
// number of pages. metrics may be nil.
func OpenFileSource(path string, pageSize int, metrics *Metrics) (*FileSource, error) {
	if pageSize < MinPageSize || pageSize > MaxPageSize {
		return nil, errors.Newf("verdin: invalid page size %d", pageSize)
	}
	m, err := mmap.MapFile(path)
	if err != nil {
		return nil, errIOf(err, "mapping page file %s", path)
	}
	if m.Size()%int64(pageSize) != 0 {
		m.Close()
		return nil, errCorruptedf("page file %s length %d is not a multiple of page size %d",
			path, m.Size(), pageSize)
	}
	return &FileSource{
		m:        m,
		pageSize: pageSize,
		numPages: uint32(m.Size() / int64(pageSize)),
		metrics:  metrics,
	}, nil
}

// NumPages returns the number of pages in the file.
func (s *FileSource) NumPages() uint32 {
	return s.numPages
}

// Page returns the page with the given number, loading and validating
// it on first access.
func (s *FileSource) Page(no uint32) (*Page, error) {
	if no >= s.numPages {
		return nil, errors.Wrapf(ErrNotFound, "page %d of %d", no, s.numPages)
	}
	if p, ok := s.cache.Get(no); ok {
		return p, nil
	}
	off := int64(no) * int64(s.pageSize)
	p, err := LoadPage(s.m.Data()[off : off+int64(s.pageSize)])
	if err != nil {
		if IsCorrupted(err) {
			s.metrics.incChecksumFailures()
		}
		return nil, err
	}
	if p.PageNo() != no {
		return nil, errCorruptedf("page at file slot %d claims number %d", no, p.PageNo())
	}
	s.cache.Set(no, p)
	return p, nil
}

// Close unmaps the file. Pages returned earlier become invalid.
func (s *FileSource) Close() error {
	s.cache.Clear()
	return s.m.Close()
}

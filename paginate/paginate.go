// Package paginate implements a plain offset/limit paginator. Page numbers
// are 1-based; requests outside the valid range clamp to the nearest valid
// page instead of erroring.
package paginate

// Page describes one window of an ordered record set.
type Page struct {
	// Number is the clamped, 1-based page number that is actually served.
	Number int
	// Size is the maximum number of records per page.
	Size int
	// TotalCount is the total number of records across all pages.
	TotalCount int
}

// New computes the page to serve for a requested page number. A request below
// 1 falls back to the first page, a request beyond the end falls back to the
// last page.
func New(requested, size, totalCount int) Page {
	p := Page{
		Number:     requested,
		Size:       size,
		TotalCount: totalCount,
	}
	if p.Number < 1 {
		p.Number = 1
	}
	if last := p.TotalPages(); p.Number > last {
		p.Number = last
	}
	return p
}

// TotalPages returns the number of pages. An empty record set still has one
// (empty) page, so clamping always has a valid target.
func (p Page) TotalPages() int {
	if p.TotalCount <= 0 || p.Size <= 0 {
		return 1
	}
	pages := p.TotalCount / p.Size
	if p.TotalCount%p.Size != 0 {
		pages++
	}
	return pages
}

// Offset returns the record offset of the page, for use in queries.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit returns the maximum record count of the page, for use in queries.
func (p Page) Limit() int {
	return p.Size
}

// Next returns the following page number. Only meaningful if HasNext.
func (p Page) Next() int {
	return p.Number + 1
}

// Prev returns the preceding page number. Only meaningful if HasPrev.
func (p Page) Prev() int {
	return p.Number - 1
}

// HasNext reports whether a page follows this one.
func (p Page) HasNext() bool {
	return p.Number < p.TotalPages()
}

// HasPrev reports whether a page precedes this one.
func (p Page) HasPrev() bool {
	return p.Number > 1
}

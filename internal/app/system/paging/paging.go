// internal/app/system/paging/paging.go
package paging

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of threads or communities per page.
const PageSize = 20

// MaxPageSize caps caller-requested page sizes.
const MaxPageSize = 100

// MaxPageNumber caps caller-requested page numbers so Skip stays within
// int64. Pages past the data are simply empty.
const MaxPageNumber = math.MaxInt32

// Page is a 1-based page request with a bounded size.
type Page struct {
	Number int
	Size   int
}

// New clamps number to [1, MaxPageNumber] and size to [1, MaxPageSize],
// using PageSize when size is not positive.
func New(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if size <= 0 {
		size = PageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Skip is the number of documents before this page.
func (p Page) Skip() int64 { return int64(p.Number-1) * int64(p.Size) }

// Limit is the page size as int64 for Find().SetLimit().
func (p Page) Limit() int64 { return int64(p.Size) }

// TotalPages returns ceil(total/size). Zero documents means zero pages.
func (p Page) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// HasNext reports whether documents remain after this page, given how many
// rows the page actually returned.
func (p Page) HasNext(total int64, shown int) bool {
	return total > p.Skip()+int64(shown)
}

// FromRequest reads "page" and "pageSize" query parameters.
// Missing or invalid values fall back to page 1 and PageSize.
func FromRequest(r *http.Request) Page {
	return New(parseInt(query.Get(r, "page"), 1), parseInt(query.Get(r, "pageSize"), PageSize))
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

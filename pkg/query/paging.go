package query

import (
	"errors"

	"github.com/rung/go-safecast"
)

// ErrPageOutOfRange is returned for a negative page size or page number,
// before any database call is made.
var ErrPageOutOfRange = errors.New("page size and page number must not be negative")

// Page is a pagination request. Size and Number both 0 means "return
// everything, unpaged"; page numbers are 1-based.
type Page struct {
	Size   int
	Number int
}

// Validate rejects negative page arguments.
func (p Page) Validate() error {
	if p.Size < 0 || p.Number < 0 {
		return ErrPageOutOfRange
	}
	return nil
}

// Unpaged reports whether the full result set was requested.
func (p Page) Unpaged() bool {
	return p.Size == 0 && p.Number == 0
}

// Window computes the LIMIT/OFFSET pair for the page. Calling Window on an
// unpaged request is a caller error; use Unpaged first.
func (p Page) Window() (limit, offset int32, err error) {
	if err = p.Validate(); err != nil {
		return 0, 0, err
	}
	limit, err = safecast.Int32(p.Size)
	if err != nil {
		return 0, 0, ErrPageOutOfRange
	}
	number, err := safecast.Int32(p.Number)
	if err != nil {
		return 0, 0, ErrPageOutOfRange
	}
	if number < 1 {
		number = 1
	}
	offset, err = safecast.Int32((int(number) - 1) * int(limit))
	if err != nil {
		return 0, 0, ErrPageOutOfRange
	}
	return limit, offset, nil
}

// PageCount returns ceil(total/pageSize). A zero-row result has zero pages;
// a page size of 0 is treated as 1 to avoid division by zero.
func PageCount(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return (total + pageSize - 1) / pageSize
}

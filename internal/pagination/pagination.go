// Package pagination slices ordered result sets into numbered pages.
package pagination

import (
	"strconv"

	"gorm.io/gorm"
)

// PerPage is the number of posts shown on every feed page.
const PerPage = 10

// Paginator describes one page of a result set of Total rows.
type Paginator struct {
	Number  int
	PerPage int
	Total   int64
}

// New resolves the raw page query value against total. Anything that is not
// a positive integer means the first page; numbers past the end mean the last.
func New(total int64, perPage int, raw string) Paginator {
	if perPage < 1 {
		perPage = PerPage
	}
	p := Paginator{PerPage: perPage, Total: total}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		n = 1
	}
	if last := p.NumPages(); n > last {
		n = last
	}
	p.Number = n
	return p
}

// NumPages is never less than one: an empty result set has one empty page.
func (p Paginator) NumPages() int {
	if p.Total <= 0 {
		return 1
	}
	per := int64(p.PerPage)
	return int((p.Total + per - 1) / per)
}

func (p Paginator) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p Paginator) HasNext() bool {
	return p.Number < p.NumPages()
}

func (p Paginator) HasPrevious() bool {
	return p.Number > 1
}

func (p Paginator) NextNumber() int {
	return p.Number + 1
}

func (p Paginator) PreviousNumber() int {
	return p.Number - 1
}

// PageRange lists every page number, for the page links.
func (p Paginator) PageRange() []int {
	out := make([]int, p.NumPages())
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Scope limits a query to this page's rows.
func (p Paginator) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.PerPage)
	}
}

// Page is one page of items together with its position.
type Page[T any] struct {
	Paginator
	Items []T
}

func NewPage[T any](p Paginator, items []T) *Page[T] {
	return &Page[T]{Paginator: p, Items: items}
}

// Len is the number of items on this page.
func (p *Page[T]) Len() int {
	return len(p.Items)
}

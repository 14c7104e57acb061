package crawler

import (
	"context"

	"github.com/tidwall/gjson"
)

// CursorMode selects how the cursor advances after each page
type CursorMode int

const (
	// ByPage advances the page number by one
	ByPage CursorMode = iota
	// ByOffset advances the item offset by the page size
	ByOffset
)

// PaginatorConfig bounds a paginator
type PaginatorConfig struct {
	Mode      CursorMode
	StartPage int // defaults to 1
	PageSize  int
	MaxPages  int // 0 means until an empty page
	Pacer     *Pacer
}

// Paginator is a lazy, finite sequence of listing pages. Use it like
// bufio.Scanner:
//
//	for p.Next(ctx) {
//		items := p.Items()
//	}
//	if err := p.Err(); err != nil { ... }
type Paginator[T any] struct {
	fetch PageFunc[T]
	cfg   PaginatorConfig
	cur   Cursor
	items []T
	err   error
	done  bool
}

// NewPaginator creates a paginator over fetch
func NewPaginator[T any](fetch PageFunc[T], cfg PaginatorConfig) *Paginator[T] {
	if cfg.StartPage <= 0 {
		cfg.StartPage = 1
	}
	return &Paginator[T]{
		fetch: fetch,
		cfg:   cfg,
		cur:   Cursor{Page: cfg.StartPage},
	}
}

// MaxPagesFor returns the page count needed for total items, or 0 when the
// total is unknown
func MaxPagesFor(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Next fetches the next page. It returns false when a page came back empty,
// the page limit was reached, or a request failed; Err tells the two apart.
func (p *Paginator[T]) Next(ctx context.Context) bool {
	if p.done {
		return false
	}
	if p.cfg.MaxPages > 0 && p.cur.Index >= p.cfg.MaxPages {
		p.done = true
		return false
	}
	if err := p.cfg.Pacer.Wait(ctx); err != nil {
		p.err = err
		p.done = true
		return false
	}

	items, err := p.fetch(ctx, p.cur)
	p.cfg.Pacer.Done()
	if err != nil {
		p.err = err
		p.done = true
		return false
	}
	if len(items) == 0 {
		p.done = true
		return false
	}

	p.items = items
	p.cur.Index++
	switch p.cfg.Mode {
	case ByOffset:
		step := p.cfg.PageSize
		if step <= 0 {
			step = len(items)
		}
		p.cur.Offset += step
		p.cur.Page++
	default:
		p.cur.Page++
		p.cur.Offset += len(items)
	}
	return true
}

// Items returns the current page's items
func (p *Paginator[T]) Items() []T {
	return p.items
}

// Err returns the error that stopped pagination, if any
func (p *Paginator[T]) Err() error {
	return p.err
}

// Cursor returns the position of the next request
func (p *Paginator[T]) Cursor() Cursor {
	return p.cur
}

// JSONItems turns a listing payload into items: an array yields its
// elements, a single object yields itself, anything else yields nothing.
func JSONItems(res gjson.Result) []gjson.Result {
	switch {
	case res.IsArray():
		return res.Array()
	case res.IsObject():
		return []gjson.Result{res}
	}
	return nil
}

// Package paging implements the cursor contract shared by every paged store
// query: callers pass back the token they received, verbatim, to continue.
package paging

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// DefaultPageSize applies when a query does not specify PageSize.
const DefaultPageSize = 10

const cursorVersion byte = 1

// ErrInvalidCursor is returned for tokens this package did not issue.
var ErrInvalidCursor = errors.New("invalid page cursor")

// Cursor is an opaque continuation token. A nil Cursor means "first page" when
// passed in and "no more rows" when returned.
type Cursor []byte

// String hex-encodes the cursor for transport.
func (c Cursor) String() string {
	return hex.EncodeToString(c)
}

// ParseCursor decodes a transported cursor. An empty string yields a nil cursor.
func ParseCursor(s string) (Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	c := Cursor(raw)
	if _, err := c.offset(); err != nil {
		return nil, err
	}
	return c, nil
}

func newCursor(offset uint64) Cursor {
	buf := make([]byte, 1, 1+binary.MaxVarintLen64)
	buf[0] = cursorVersion
	return binary.AppendUvarint(buf, offset)
}

func (c Cursor) offset() (uint64, error) {
	if len(c) == 0 {
		return 0, nil
	}
	if c[0] != cursorVersion {
		return 0, fmt.Errorf("%w: unknown version %d", ErrInvalidCursor, c[0])
	}
	off, n := binary.Uvarint(c[1:])
	if n <= 0 || n != len(c)-1 {
		return 0, fmt.Errorf("%w: bad offset encoding", ErrInvalidCursor)
	}
	return off, nil
}

// Query carries the paging parameters of one call.
type Query struct {
	Cursor Cursor
	// PageSize bounds rows returned by this call; 0 means DefaultPageSize.
	PageSize int
	// Limit, when set, bounds rows across all pages.
	Limit *int
}

// WithLimit returns a copy of q capped to limit rows in total.
func (q Query) WithLimit(limit int) Query {
	q.Limit = &limit
	return q
}

// Page is one batch of rows plus the cursor for the next batch.
type Page[T any] struct {
	Items []T
	Next  Cursor
}

// Window is the row range a store adapter has to read for one call. Fetch is
// Size+1 so the adapter can tell whether another page exists.
type Window struct {
	Offset uint64
	Size   int
	Limit  *int
}

// Plan resolves q into the window to read. Done is true when the total limit is
// already exhausted and no store access is needed.
func Plan(q Query) (w Window, done bool, err error) {
	off, err := q.Cursor.offset()
	if err != nil {
		return Window{}, false, err
	}
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if q.Limit != nil {
		if *q.Limit < 0 {
			return Window{}, false, fmt.Errorf("negative limit %d", *q.Limit)
		}
		remaining := int64(*q.Limit) - int64(off)
		if remaining <= 0 {
			return Window{Offset: off, Limit: q.Limit}, true, nil
		}
		if int64(size) > remaining {
			size = int(remaining)
		}
	}
	return Window{Offset: off, Size: size, Limit: q.Limit}, false, nil
}

// Fetch is the number of rows to request, including the look-ahead row.
func (w Window) Fetch() int {
	return w.Size + 1
}

// Finish trims the look-ahead row and issues the next cursor. A further page
// exists only if the look-ahead row arrived and the total limit is not reached.
func Finish[T any](w Window, rows []T) Page[T] {
	if len(rows) <= w.Size {
		return Page[T]{Items: rows}
	}
	rows = rows[:w.Size]
	next := w.Offset + uint64(w.Size)
	if w.Limit != nil && next >= uint64(*w.Limit) {
		return Page[T]{Items: rows}
	}
	return Page[T]{Items: rows, Next: newCursor(next)}
}

// Map converts every item of a page, keeping the cursor.
func Map[T, U any](p Page[T], fn func(T) (U, error)) (Page[U], error) {
	out := Page[U]{Items: make([]U, 0, len(p.Items)), Next: p.Next}
	for _, item := range p.Items {
		u, err := fn(item)
		if err != nil {
			return Page[U]{}, err
		}
		out.Items = append(out.Items, u)
	}
	return out, nil
}

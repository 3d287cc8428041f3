package graph

import "errors"

// ErrMalformedRow is returned by row adapters when a required field is absent or
// carries an impossible value.
var ErrMalformedRow = errors.New("malformed row")

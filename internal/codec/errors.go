// Package codec implements the tile payload compressor (C2): a lossless
// general-purpose codec, a fixed-accuracy lossy quantizer, and the
// fast byte-level NaN-mask codec that rides alongside the lossy path.
package codec

import "fmt"

// Error reports a compressor or decoder rejecting its input. Per the
// error taxonomy, this is fatal for the single tile it affects; callers
// are expected to synthesize a NaN tile in its place.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("codec: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

package output

import "errors"

var (
	ErrNoSuchElement   = errors.New("no such element")
	ErrStaleElement    = errors.New("stale element reference")
	ErrInvalidArgument = errors.New("invalid argument")
)

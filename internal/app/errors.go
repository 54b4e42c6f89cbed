package app

import "errors"

var (
	ErrEmptyURL          = errors.New("url is empty")
	ErrNoDestination     = errors.New("no download destination set")
	ErrNoSelection       = errors.New("nothing selected")
	ErrToolUnavailable   = errors.New("tool unavailable")
	ErrNoJob             = errors.New("no active job")
	ErrUpdateUnsupported = errors.New("self-update not supported")
)

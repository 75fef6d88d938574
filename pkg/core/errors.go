package core

import "errors"

// Common errors.
var (
	ErrIndexOutOfRange  = errors.New("index path out of range")
	ErrDuplicateSection = errors.New("duplicate section id")
	ErrNoBatchOpen      = errors.New("no batch update in progress")
	ErrClosed           = errors.New("collection is closed")
)

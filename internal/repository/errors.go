package repository

import "errors"

// ErrVersionConflict means an optimistic compare-and-swap lost to a
// concurrent writer. The caller decides whether to retry or skip.
var ErrVersionConflict = errors.New("version conflict")

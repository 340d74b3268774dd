package domain

import "errors"

// ErrDecode marks an unreadable PDF. Fatal: ingestion aborts before any output.
var ErrDecode = errors.New("pdf decode failed")

// ErrStorage marks a failed persistence operation under the storage root.
var ErrStorage = errors.New("storage failed")

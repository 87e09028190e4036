package store

import "errors"

var (
	ErrEntryNotFound = errors.New("queue entry not found")
	ErrEmptyPatch    = errors.New("empty patch")
)

package models

import "errors"

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document modified concurrently")
)

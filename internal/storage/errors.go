package storage

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrSlugTaken is returned when an article insert collides with an
// existing slug. Inserts never overwrite; callers decide whether to skip
// or surface a conflict.
var ErrSlugTaken = errors.New("storage: slug already taken")

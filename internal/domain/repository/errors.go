package repository

import "errors"

// ErrDuplicate is returned when a record with the same id or key already exists.
var ErrDuplicate = errors.New("record already exists")

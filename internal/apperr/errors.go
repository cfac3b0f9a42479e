package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNoTask          = errors.New("no task on line")
	ErrInvalidArgument = errors.New("invalid argument")
)

package service

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("already exists")
	ErrLastAdmin    = errors.New("cannot delete the last admin")
)

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks missing or unusable secrets. It must never be
	// reported as an authentication failure.
	ErrConfiguration = errors.New("configuration error")

	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrUnauthenticated    = errors.New("unauthorized")

	ErrLetterNotFound = errors.New("letter not found")
	ErrNotAuthor      = errors.New("not the author")
	ErrWindowExpired  = errors.New("mutation window expired")
)

// AccessError reports why a mutation on an existing letter was refused.
// Err is either ErrNotAuthor or ErrWindowExpired.
type AccessError struct {
	Op  Mutation
	Err error
}

func (e *AccessError) Error() string {
	switch {
	case errors.Is(e.Err, ErrNotAuthor):
		return fmt.Sprintf("you can only %s your own letters", e.Op)
	case errors.Is(e.Err, ErrWindowExpired):
		return fmt.Sprintf("%s window has expired (%d minutes)", e.Op, int(EditWindow.Minutes()))
	default:
		return fmt.Sprintf("%s not allowed: %v", e.Op, e.Err)
	}
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

package domain

import "time"

// Session is the result of a successful login: a signed token bound to an
// identity, valid until ExpiresAt.
type Session struct {
	UserID    Identity  `json:"userId"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

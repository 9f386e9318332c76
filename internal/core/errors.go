package core

import "errors"

var (
	// ErrEmptyUsername is returned when an identity has no username.
	ErrEmptyUsername = errors.New("username is required")
	// ErrIdentitySet is returned when the identity is set a second time.
	ErrIdentitySet = errors.New("identity already set")
	// ErrNoIdentity is returned when connecting before an identity exists.
	ErrNoIdentity = errors.New("identity not set")
	// ErrInvalidIntent marks an intent that the current connection state does
	// not allow, e.g. sending while disconnected. Callers drop it quietly.
	ErrInvalidIntent = errors.New("invalid intent")
)

package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPassphraseTooShort = errors.New("passphrase must be at least 8 characters long")
	ErrAuthDisabled       = errors.New("dashboard authentication is disabled")
)

// OwnerSubject is the token subject of the single dashboard owner.
const OwnerSubject = "owner"

package errs

import "errors"

var ErrNotFound = errors.New("not found")

var ErrAlreadyExists = errors.New("already exists")

var ErrInternal = errors.New("internal error")

// ErrUnauthenticated is returned when a caller without a valid identity reaches a protected resource.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrForbidden is returned when the caller's identity is not allowed the requested operation.
var ErrForbidden = errors.New("forbidden")

var ErrInvalidCredentials = errors.New("invalid credentials")

var ErrInvalidToken = errors.New("invalid token")

var ErrLoginDisabled = errors.New("login method disabled")

var ErrInvalidKey = errors.New("invalid object key")

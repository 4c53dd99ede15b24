package authz

import "errors"

// ErrForbidden is returned when the actor lacks permission for an operation
var ErrForbidden = errors.New("forbidden")

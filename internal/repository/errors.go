// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to modify a product listed by another pharmacy, while
// ErrProfileNotFound signals that the account has no profile row yet.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrProfileNotFound is returned when no pharmacist or pharmacy owner
// profile exists for the requested id. Handlers should translate this
// into an HTTP 404 response.
var ErrProfileNotFound = errors.New("profile not found")

// ErrProductNotFound is returned when a product id does not exist.
var ErrProductNotFound = errors.New("product not found")

// ErrUnsupportedPredicate is returned when a search filter carries a
// predicate the target table has no column for.
var ErrUnsupportedPredicate = errors.New("unsupported search predicate")

package social

import (
	"errors"
	"fmt"
)

// ErrForbidden marks an operation the actor is not allowed to perform, such
// as editing someone else's post.
var ErrForbidden = errors.New("forbidden")

// ErrValidation marks rejected input. The wrapping message says what was
// wrong.
var ErrValidation = errors.New("validation failed")

func validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

package apperr

import (
	"errors"

	"nietladen/internal/store"
)

// FromStore classifies a store error for the named entity. Unknown errors
// pass through unchanged and surface as internal failures.
func FromStore(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Msg: what + " not found", Err: err}
	case errors.Is(err, store.ErrDuplicate):
		return &Error{Kind: KindConflict, Msg: what + " already exists", Err: err}
	case errors.Is(err, store.ErrInvalidReference):
		return &Error{Kind: KindValidation, Msg: what + " references a record that does not exist", Err: err}
	default:
		return err
	}
}

package dict

import "errors"

var (
	// ErrFormat reports a dictionary file whose content is not a JSON object.
	ErrFormat = errors.New("terms file must be a JSON object")
	// ErrValidation reports an add_term call without a usable canonical term.
	ErrValidation = errors.New("correct must be a non-empty string")
)

package desk

import "errors"

// ErrInvalidOption is returned by NewDesk for an option with an impossible value.
var ErrInvalidOption = errors.New("invalid desk option")

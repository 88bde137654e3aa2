package visibility

import "errors"

var (
	// ErrUnknownRole is returned for a role outside requester, candidate and operator.
	ErrUnknownRole = errors.New("unknown role")
)

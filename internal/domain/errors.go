package domain

import "strings"

// ValidationErrors collects every rule a write violated so callers can show
// all of them at once. It satisfies error so services can return it on the
// ordinary error path.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, "; ")
}

// ErrTryAgainLater is the message surfaced when the data store rejects a
// write for reasons the user cannot fix.
const ErrTryAgainLater = "Please try again later."

package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict on insert.
	ErrAlreadyExists = errors.New("already exists")
	// ErrOutOfStock is returned when a requested quantity exceeds live catalog stock.
	ErrOutOfStock = errors.New("out of stock")
	// ErrNotAuthenticated is returned for cart operations without an active identity.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidInput marks caller mistakes that map to a 400 at the edge.
	ErrInvalidInput = errors.New("invalid input")
)

// PartialClearError reports a cart clear where some deletes succeeded and
// others failed. The surviving item ids are listed so the caller can tell
// what state the cart was left in.
type PartialClearError struct {
	Deleted int
	Failed  []string
}

func (e *PartialClearError) Error() string {
	return fmt.Sprintf("partial cart clear: deleted %d item(s), failed to delete %s",
		e.Deleted, strings.Join(e.Failed, ", "))
}

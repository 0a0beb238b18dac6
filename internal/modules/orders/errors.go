package orders

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrOrderNotFound = errors.New("order not found")

// ValidationError: malformed input caught before anything is priced or
// written. Never retried automatically.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid checkout input"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid checkout input: " + strings.Join(keys, ", ")
}

// TransientError: commit/connection-level faults. The only category where
// retrying with the same idempotency key is the recommended caller action.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient checkout failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

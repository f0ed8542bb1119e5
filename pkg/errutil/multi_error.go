// Package errutil provides helpers for combining errors.
package errutil

import "strings"

// Multi combines errors into one. Nil arguments are skipped. It returns nil
// when nothing is left, the error itself when one is left, and otherwise an
// error listing all messages. Results of Multi among the arguments are
// flattened, so Multi(Multi(a, b), c) is the same as Multi(a, b, c).
//
// The combined error unwraps to its parts, so errors.Is and errors.As see
// each of them.
func Multi(errs ...error) error {
	var parts multiError
	for _, err := range errs {
		switch err := err.(type) {
		case nil:
		case multiError:
			parts = append(parts, err...)
		default:
			parts = append(parts, err)
		}
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}
	return parts
}

type multiError []error

func (me multiError) Error() string {
	msgs := make([]string, len(me))
	for i, err := range me {
		msgs[i] = err.Error()
	}
	return "multiple errors: " + strings.Join(msgs, "; ")
}

func (me multiError) Unwrap() []error { return me }

package lib

import "fmt"

type wrappedError struct {
	target error
	cause  error
}

// WrapError annotates cause with the target sentinel, both of them can be
// matched with errors.Is
func WrapError(target error, cause error) error {
	if cause == nil {
		return target
	}
	return &wrappedError{target: target, cause: cause}
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.target, e.cause)
}

func (e *wrappedError) Unwrap() []error {
	return []error{e.target, e.cause}
}

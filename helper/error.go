package helper

import "fmt"

// NewError wraps err with the operation that failed.
// The result reads "trace: cause" and unwraps to err.
func NewError(trace string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", trace, err)
}

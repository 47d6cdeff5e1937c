package modularity

import "fmt"

// runSafely executes fn and converts a panic into a returned error tagged with
// scope. Errors returned by fn are passed through untouched so callers can
// still recognise an *InitializeError.
func runSafely(scope string, fn func() error) (err error) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		if recoveredErr, ok := recovered.(error); ok {
			err = fmt.Errorf("%s: panic recovered: %w", scope, recoveredErr)
			return
		}
		err = fmt.Errorf("%s: panic recovered: %v", scope, recovered)
	}()

	return fn()
}

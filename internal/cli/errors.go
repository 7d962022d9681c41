package cli

import "fmt"

// Exit codes for the houston binary.
const (
	ExitSuccess   = 0
	ExitUserError = 1
	ExitAPIError  = 2
	ExitIOFailure = 3
)

// ExitError pairs an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// WrapExit attaches an exit code to a non-nil error.
func WrapExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCode extracts the exit code from an error chain.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	exitErr, ok := err.(*ExitError)
	if ok {
		return exitErr.Code
	}
	return ExitUserError
}

package cmd

import (
	"errors"

	commenthttp "github.com/abdul-hamid-achik/commentclient/packages/http"
)

// Exit codes for the commentclient CLI
const (
	// ExitSuccess indicates the command succeeded
	ExitSuccess = 0

	// ExitClientRequest indicates the service rejected the request
	ExitClientRequest = 1

	// ExitServiceUnavailable indicates maintenance mode or an internal error
	ExitServiceUnavailable = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error or timeout
	ExitNetworkError = 4

	// ExitThresholdFailure indicates a probe threshold was exceeded
	ExitThresholdFailure = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var coded *exitError
	if errors.As(err, &coded) {
		return coded.code
	}

	if kind, ok := commenthttp.KindOf(err); ok {
		if kind == commenthttp.KindClientRequest {
			return ExitClientRequest
		}
		return ExitServiceUnavailable
	}

	if errors.Is(err, commenthttp.ErrUnsupportedMethod) || errors.Is(err, commenthttp.ErrEmptyURL) {
		return ExitUsageError
	}
	return ExitNetworkError
}

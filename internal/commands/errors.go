package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	codeValidationFailed = "COMMAND_VALIDATION_FAILED"
	codeContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	codeContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	codeContextError     = "COMMAND_CONTEXT_ERROR"
	codeExecutionFailed  = "COMMAND_EXECUTION_FAILED"
)

// tagged attaches a category and text code to an error unless it already
// carries one; collaborator taxonomies (fetch, storage) survive the command
// boundary untouched.
func tagged(err error, category goerrors.Category, code, msg string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, category, msg).WithTextCode(code)
}

func wrapValidationError(err error) error {
	return tagged(err, goerrors.CategoryValidation, codeValidationFailed,
		"corpus command rejected by validation")
}

func wrapContextError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return tagged(err, goerrors.CategoryCommand, codeContextCanceled,
			"corpus command canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return tagged(err, goerrors.CategoryCommand, codeContextTimeout,
			"corpus command deadline exceeded")
	default:
		return tagged(err, goerrors.CategoryCommand, codeContextError,
			"corpus command context failure")
	}
}

func wrapExecuteError(err error) error {
	return tagged(err, goerrors.CategoryCommand, codeExecutionFailed,
		"corpus run failed")
}

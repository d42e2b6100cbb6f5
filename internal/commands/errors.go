package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to marker edit failures that did not already carry one.
const (
	CodeEditInvalid     = "MARKER_EDIT_INVALID"
	CodeEditCanceled    = "MARKER_EDIT_CANCELED"
	CodeEditTimeout     = "MARKER_EDIT_TIMEOUT"
	CodeEditInterrupted = "MARKER_EDIT_INTERRUPTED"
	CodeEditFailed      = "MARKER_EDIT_FAILED"
)

func wrapValidationError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "marker edit rejected").
		WithTextCode(CodeEditInvalid)
}

func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "marker edit cancelled").
			WithTextCode(CodeEditCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "marker edit timed out").
			WithTextCode(CodeEditTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "marker edit interrupted").
			WithTextCode(CodeEditInterrupted)
	}
}

// wrapExecuteError keeps domain errors (not found, immutable marker) intact so
// callers can still match on their category.
func wrapExecuteError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return wrapContextError(err)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "marker edit failed").
		WithTextCode(CodeEditFailed)
}

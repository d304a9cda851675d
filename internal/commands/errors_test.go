package commands

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestWrapContextErrorClassification(t *testing.T) {
	canceled := wrapContextError(context.Canceled)
	if !goerrors.IsCategory(canceled, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", canceled)
	}
	if !errors.Is(canceled, context.Canceled) {
		t.Fatal("wrapped error must preserve the cause")
	}

	timedOut := wrapContextError(context.DeadlineExceeded)
	if !errors.Is(timedOut, context.DeadlineExceeded) {
		t.Fatal("deadline cause lost through wrapping")
	}

	if wrapContextError(nil) != nil {
		t.Fatal("nil must pass through untouched")
	}
}

func TestWrapExecuteErrorKeepsExistingCategories(t *testing.T) {
	already := goerrors.Wrap(errors.New("fetch timed out"),
		goerrors.Category("fetch"), "fetch failed")

	if got := wrapExecuteError(already); got != already {
		t.Fatal("categorised collaborator errors must survive the command boundary")
	}
	if wrapExecuteError(nil) != nil {
		t.Fatal("nil must pass through untouched")
	}

	plain := wrapExecuteError(errors.New("engine blew up"))
	if !goerrors.IsCategory(plain, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", plain)
	}
}

func TestWrapValidationError(t *testing.T) {
	err := wrapValidationError(errors.New("directory is required"))
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if wrapValidationError(nil) != nil {
		t.Fatal("nil must pass through untouched")
	}
}

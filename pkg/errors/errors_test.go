package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidGoal, "unknown good %d", 7)

	if err.Code != ErrCodeInvalidGoal {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidGoal)
	}
	if err.Message != "unknown good 7" {
		t.Errorf("Message = %v, want %v", err.Message, "unknown good 7")
	}
	if want := "INVALID_GOAL: unknown good 7"; err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(ErrCodeInvalidCatalog, cause, "load catalog")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if want := "INVALID_CATALOG: load catalog: disk on fire"; err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeNoSolution, "x"), ErrCodeNoSolution, true},
		{"non-matching code", New(ErrCodeNoSolution, "x"), ErrCodeInvalidGoal, false},
		{"outermost code wins", Wrap(ErrCodeInternal, New(ErrCodeNoSolution, "inner"), "outer"), ErrCodeInternal, true},
		{"fmt wrapped", fmt.Errorf("solve: %w", New(ErrCodeNoSolution, "x")), ErrCodeNoSolution, true},
		{"plain error", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"coded with cause", Wrap(ErrCodeNotFound, errors.New("no such file"), "open catalog"), "open catalog: no such file"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidGoal, "x"), 400},
		{New(ErrCodeInvalidInput, "x"), 400},
		{New(ErrCodeNotFound, "x"), 404},
		{New(ErrCodeNoSolution, "x"), 422},
		{Wrap(ErrCodeCanceled, context.Canceled, "x"), 499},
		{errors.New("boom"), 500},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

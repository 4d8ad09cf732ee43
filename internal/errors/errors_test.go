package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  &AppError{Code: ErrCodeNotFound, Message: "resource not found"},
			want: "resource not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to process",
				Cause:   errors.New("underlying error"),
			},
			want: "failed to process: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeInternal, "wrapped error")

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(Wrap(cause), cause) = false, want true")
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "noop"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
		is   func(error) bool
	}{
		{"not found", NotFound("x"), ErrCodeNotFound, IsNotFound},
		{"conflict", Conflict("x"), ErrCodeConflict, IsConflict},
		{"validation", Validation("x"), ErrCodeValidation, IsValidation},
		{"internal", Internal("x"), ErrCodeInternal, IsInternal},
		{"unauthenticated", Unauthenticated("x"), ErrCodeUnauthenticated, IsUnauthenticated},
		{"forbidden", Forbidden("x"), ErrCodeForbidden, IsForbidden},
		{"configuration", Configuration("x"), ErrCodeConfiguration, IsConfiguration},
		{"rate limited", RateLimited("x"), ErrCodeRateLimited, IsRateLimited},
		{"upstream", UpstreamAuth(errors.New("boom")), ErrCodeUpstreamAuth, IsUpstreamAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !tt.is(wrapped) {
				t.Errorf("predicate did not match wrapped %v", tt.code)
			}
			if GetCode(wrapped) != tt.code {
				t.Errorf("GetCode() = %v, want %v", GetCode(wrapped), tt.code)
			}
		})
	}
}

func TestUpstreamAuth_MessageHidesCause(t *testing.T) {
	err := UpstreamAuth(errors.New("invalid_grant: code already redeemed"))

	if got := PublicMessage(err, "fallback"); got != "authentication failed" {
		t.Errorf("PublicMessage() = %q, want %q", got, "authentication failed")
	}
}

func TestPublicMessage_Fallback(t *testing.T) {
	if got := PublicMessage(errors.New("raw driver text"), "internal error"); got != "internal error" {
		t.Errorf("PublicMessage() = %q, want fallback", got)
	}
}

func TestGetField(t *testing.T) {
	err := ValidationField("username", "required")
	if got := GetField(fmt.Errorf("wrap: %w", err)); got != "username" {
		t.Errorf("GetField() = %q, want %q", got, "username")
	}
	if got := GetField(errors.New("plain")); got != "" {
		t.Errorf("GetField(plain) = %q, want empty", got)
	}
}

func TestGetCode_NonAppError(t *testing.T) {
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

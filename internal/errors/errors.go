package errors

import (
	stderrors "errors"
	"fmt"
)

type Code string

const (
	CodeUnknown            Code = "UNKNOWN"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeCodeNotFound       Code = "CODE_NOT_FOUND"
	CodeCodeExpired        Code = "CODE_EXPIRED"
	CodeAlreadyConfirmed   Code = "ALREADY_CONFIRMED"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeTooManyRequests    Code = "TOO_MANY_REQUESTS"
	CodeDeliveryFailed     Code = "DELIVERY_FAILED"
	CodeSessionNotFound    Code = "SESSION_NOT_FOUND"
	CodeSessionNotOwned    Code = "SESSION_NOT_OWNED"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeNotFound           Code = "NOT_FOUND"
)

// AppError is a typed failure returned by the auth core. Two AppErrors match
// under errors.Is when their codes are equal, so a wrapped DeliveryFailed still
// matches ErrDeliveryFailed.
type AppError struct {
	Code    Code   `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Field == "" || t.Field == e.Field)
}

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func NewField(code Code, field, message string) error {
	return &AppError{Code: code, Field: field, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first AppError in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FieldOf returns the request field an AppError refers to, if any.
func FieldOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

var (
	ErrInvalidCredentials = New(CodeInvalidCredentials, "invalid credentials")
	ErrCodeNotFound       = NewField(CodeCodeNotFound, "code", "confirmation code not found")
	ErrCodeExpired        = NewField(CodeCodeExpired, "code", "confirmation code expired")
	ErrAlreadyConfirmed   = NewField(CodeAlreadyConfirmed, "code", "email already confirmed")
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrInvalidToken       = New(CodeInvalidToken, "invalid token")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrDeliveryFailed     = New(CodeDeliveryFailed, "email could not be delivered, try again later")
	ErrSessionNotFound    = New(CodeSessionNotFound, "device session not found")
	ErrSessionNotOwned    = New(CodeSessionNotOwned, "device session belongs to another user")
	ErrLoginTaken         = NewField(CodeAlreadyExists, "login", "login already in use")
	ErrEmailTaken         = NewField(CodeAlreadyExists, "email", "email already in use")
	ErrAccountExists      = New(CodeAlreadyExists, "account already exists")
	ErrEmailNotFound      = NewField(CodeNotFound, "email", "account with this email not found")
	ErrUserNotFound       = New(CodeNotFound, "user not found")
)

func DeliveryFailed(cause error) error {
	return &AppError{Code: CodeDeliveryFailed, Message: "email could not be delivered, try again later", Cause: cause}
}

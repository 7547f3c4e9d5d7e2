package apperror

import (
	"errors"
	"net/http"
)

type Error struct {
	Code       string
	Message    string
	StatusCode int
	Internal   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Internal
}

var (
	ErrInvalidInput = &Error{
		Code:       "invalid_input",
		Message:    "The document could not be parsed or an option value is not supported",
		StatusCode: http.StatusBadRequest,
	}

	ErrEncrypted = &Error{
		Code:       "encrypted_document",
		Message:    "The document is password-protected and cannot be processed",
		StatusCode: http.StatusUnprocessableEntity,
	}

	ErrGeometryInvalid = &Error{
		Code:       "geometry_invalid",
		Message:    "The crop rectangle is too small, does not fit the page, or targets a page outside the document",
		StatusCode: http.StatusUnprocessableEntity,
	}

	ErrDuplicatePageTarget = &Error{
		Code:       "duplicate_page_target",
		Message:    "The same page appears more than once in the batch",
		StatusCode: http.StatusBadRequest,
	}

	ErrRasterizationFailure = &Error{
		Code:       "rasterization_failure",
		Message:    "Page rendering failed",
		StatusCode: http.StatusInternalServerError,
	}

	ErrFileTooLarge = &Error{
		Code:       "file_too_large",
		Message:    "The uploaded file exceeds the maximum allowed size",
		StatusCode: http.StatusRequestEntityTooLarge,
	}

	ErrBadRequest = &Error{
		Code:       "bad_request",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	ErrInternal = &Error{
		Code:       "internal_error",
		Message:    "An unexpected error occurred. Please try again later",
		StatusCode: http.StatusInternalServerError,
	}
)

func New(code, message string, statusCode int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Wrap(err error, appErr *Error) *Error {
	return &Error{
		Code:       appErr.Code,
		Message:    appErr.Message,
		StatusCode: appErr.StatusCode,
		Internal:   err,
	}
}

func WrapWithMessage(err error, code, message string, statusCode int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

func Is(err error, target *Error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

func StatusCode(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func SafeMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrInternal.Message
}

func Code(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal.Code
}

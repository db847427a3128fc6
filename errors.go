package typroxy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorCode represents a machine-readable compilation error code.
type ErrorCode string

const (
	CodeMissingRouteAnnotation ErrorCode = "missing_route_annotation"
	CodeMissingRegionKey       ErrorCode = "missing_region_key"
	CodeFormFileBodyConflict   ErrorCode = "form_file_body_conflict"
	CodePutKeyMismatch         ErrorCode = "put_key_mismatch"
	CodePutKeyNotSimpleType    ErrorCode = "put_key_not_simple_type"
	CodeInvalidRouteTemplate   ErrorCode = "invalid_route_template"
	CodeInvalidContentType     ErrorCode = "invalid_content_type"
	CodeInvalidContract        ErrorCode = "invalid_contract"
	CodeUnknownOperation       ErrorCode = "unknown_operation"
	CodeInvalidParameters      ErrorCode = "invalid_parameters"
	CodeMetadataUnavailable    ErrorCode = "metadata_unavailable"
	CodeInvalidArgument        ErrorCode = "invalid_argument" // request planning only
)

// Error is a contract-definition error. Every error returned by
// Compiler.Compile is an *Error identifying the offending contract,
// operation and parameter where applicable.
type Error struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Contract  string         `json:"contract,omitempty"`
	Operation string         `json:"operation,omitempty"`
	Parameter string         `json:"parameter,omitempty"`
	Details   map[string]any `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	if e.Contract != "" {
		b.WriteString(e.Contract)
		if e.Operation != "" {
			b.WriteString(".")
			b.WriteString(e.Operation)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a new compilation error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new compilation error with a formatted message.
// A %w verb records the wrapped error as the cause.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{
		Code:    code,
		Message: err.Error(),
		cause:   errors.Unwrap(err),
	}
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	out := *e
	out.Details = details
	return &out
}

// WithDetails returns a new Error with the provided map merged into details.
func (e *Error) WithDetails(details map[string]any) *Error {
	if len(details) == 0 {
		return e
	}
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	out := *e
	out.Details = merged
	return &out
}

// at returns a copy of e located at the given contract and operation.
// Empty arguments leave the existing location untouched.
func (e *Error) at(contract, operation string) *Error {
	out := *e
	if contract != "" {
		out.Contract = contract
	}
	if operation != "" {
		out.Operation = operation
	}
	return &out
}

// param returns a copy of e naming the offending parameter.
func (e *Error) param(name string) *Error {
	out := *e
	out.Parameter = name
	return &out
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not
// (and does not wrap) an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// fromValidation maps validator failures on annotation structs to
// compilation errors.
func fromValidation(err error) *Error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) || len(valErrs) == 0 {
		return Errorf(CodeInvalidContract, "%w", err)
	}

	ve := valErrs[0]
	switch ve.StructField() {
	case "RegionKey":
		return NewError(CodeMissingRegionKey, `specify the "RegionKey" of the route annotation`).
			WithDetail("rule", ve.Tag())
	case "ContentType":
		return Errorf(CodeInvalidContentType, "content type %q is not a valid media type", ve.Value()).
			WithDetail("rule", ve.Tag())
	default:
		return Errorf(CodeInvalidContract, "%s: failed %s validation", ve.Namespace(), ve.Tag())
	}
}

// Package errors is the coded error type shared by the bot, API and worker.
// Import it as perr.
package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failure. Values go over the wire; append only.
type ErrorCode uint16

const (
	ErrorCodeUnknown ErrorCode = iota
	ErrorCodePanic
	// ErrorCodeUnavailable is transient; a retry may succeed
	ErrorCodeUnavailable
	ErrorCodeTooManyRequests
	ErrorCodeUnauthorized
	ErrorCodeInvalidArgument
	// ErrorCodeValidation is a request that failed struct validation
	ErrorCodeValidation
	ErrorCodeJSON
	ErrorCodeDuplicateKey
	ErrorCodeDB
	// ErrorCodeDownload means the input never reached local disk
	ErrorCodeDownload
	// ErrorCodeBackend is a cloud or local OCR engine failure
	ErrorCodeBackend
	// ErrorCodeProcessing covers normalizing, splitting, rendering and decoding
	ErrorCodeProcessing
	ErrorCodeNotFound
)

var statusByCode = map[ErrorCode]int{
	ErrorCodeUnavailable:     http.StatusServiceUnavailable,
	ErrorCodeTooManyRequests: http.StatusTooManyRequests,
	ErrorCodeUnauthorized:    http.StatusUnauthorized,
	ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
	ErrorCodeValidation:      http.StatusBadRequest,
	ErrorCodeJSON:            http.StatusBadRequest,
	ErrorCodeDuplicateKey:    http.StatusConflict,
	ErrorCodeDownload:        http.StatusBadGateway,
	ErrorCodeBackend:         http.StatusBadGateway,
	ErrorCodeNotFound:        http.StatusNotFound,
}

// HTTPStatusCode maps c to a status; anything unmapped is a 500
func HTTPStatusCode(c ErrorCode) int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error carries a code, a message for people, and optionally the offending
// request field, the pipeline step that failed (op) and the wrapped cause.
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
}

// Wire is the JSON shape of an Error in API envelopes
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Op      string    `json:"op,omitempty"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.orig != nil:
		return e.msg + ": " + e.orig.Error()
	default:
		return e.msg
	}
}

func (e *Error) Unwrap() error   { return e.orig }
func (e *Error) Code() ErrorCode { return e.code }
func (e *Error) Field() string   { return e.field }
func (e *Error) Op() string      { return e.op }
func (e *Error) ToWire() Wire    { return Wire{Code: e.code, Message: e.msg, Field: e.field, Op: e.op} }
func (e *Error) with(f func(*Error)) *Error {
	c := *e
	f(&c)
	return &c
}

// As finds the outermost *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrs.As(err, &e)
	return e, ok
}

// WireFrom renders any error; foreign errors get ErrorCodeUnknown. nil gives the zero Wire.
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// Root is the innermost cause
func Root(err error) error {
	for {
		next := stderrs.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// CodeOf returns err's code, or ErrorCodeUnknown for foreign errors
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// OpOf returns the failed step recorded on err, or ""
func OpOf(err error) string {
	if e, ok := As(err); ok {
		return e.op
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus is HTTPStatusCode(CodeOf(err))
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// WithField returns a copy of err naming the request field at fault.
// Foreign errors come back unchanged.
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		return e.with(func(c *Error) { c.field = field })
	}
	return err
}

// WithOp returns a copy of err tagged with the step that failed, e.g. "fetch"
// or "render". Foreign errors come back unchanged.
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		return e.with(func(c *Error) { c.op = op })
	}
	return err
}

func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap keeps orig as the cause
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

func JSONErrf(format string, a ...any) error      { return Newf(ErrorCodeJSON, format, a...) }
func PanicErrf(format string, a ...any) error     { return Newf(ErrorCodePanic, format, a...) }
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }
func TooManyRequestsf(format string, a ...any) error {
	return Newf(ErrorCodeTooManyRequests, format, a...)
}
func Downloadf(format string, a ...any) error   { return Newf(ErrorCodeDownload, format, a...) }
func Backendf(format string, a ...any) error    { return Newf(ErrorCodeBackend, format, a...) }
func Processingf(format string, a ...any) error { return Newf(ErrorCodeProcessing, format, a...) }

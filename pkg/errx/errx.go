package errx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Type classifies an error for transport mapping and retry decisions.
type Type string

const (
	TypeNotFound      Type = "NOT_FOUND"
	TypeConflict      Type = "CONFLICT"
	TypeValidation    Type = "VALIDATION"
	TypeInternal      Type = "INTERNAL"
	TypeAuthorization Type = "AUTHORIZATION"
	TypeBusiness      Type = "BUSINESS"
	TypeExternal      Type = "EXTERNAL"
	TypeUnavailable   Type = "UNAVAILABLE"
)

// Code is a registered error code, unique within a registry prefix.
type Code string

type definition struct {
	errType    Type
	httpStatus int
	message    string
}

// Registry holds the error definitions for one domain prefix.
type Registry struct {
	prefix string
	mu     sync.RWMutex
	defs   map[Code]definition
}

// NewRegistry creates a registry whose codes are namespaced by prefix.
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix: prefix,
		defs:   make(map[Code]definition),
	}
}

// Register adds an error definition and returns its namespaced code.
func (r *Registry) Register(code string, t Type, httpStatus int, message string) Code {
	full := Code(r.prefix + "." + code)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[full] = definition{errType: t, httpStatus: httpStatus, message: message}
	return full
}

// New creates an Error from a registered code.
func (r *Registry) New(code Code) *Error {
	return r.build(code, nil)
}

// NewWithCause creates an Error from a registered code, keeping the cause
// for logs and errors.Is/As chains. The cause never reaches HTTP responses.
func (r *Registry) NewWithCause(code Code, cause error) *Error {
	return r.build(code, cause)
}

func (r *Registry) build(code Code, cause error) *Error {
	r.mu.RLock()
	def, ok := r.defs[code]
	r.mu.RUnlock()
	if !ok {
		def = definition{errType: TypeInternal, httpStatus: http.StatusInternalServerError, message: "Unknown error"}
	}
	return &Error{
		Code:       code,
		Type:       def.errType,
		Message:    def.message,
		HTTPStatus: def.httpStatus,
		cause:      cause,
	}
}

// Error is the canonical application error. Message and Details are safe to
// expose; cause is internal only.
type Error struct {
	Code       Code           `json:"code"`
	Type       Type           `json:"type"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Is matches two errx errors by code, so sentinel comparisons work across
// instances created from the same registry entry.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail attaches a single key/value to the error and returns it.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges the given map into the error details.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// HTTPResponse is the wire shape returned to clients.
type HTTPResponse struct {
	Error   string         `json:"error"`
	Type    Type           `json:"type"`
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToHTTPResponse renders the sanitized client view of the error.
func (e *Error) ToHTTPResponse() HTTPResponse {
	return HTTPResponse{
		Error:   string(e.Type),
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// Wrap turns an arbitrary error into an *Error of the given type with a
// generic code derived from the type. Used where no registry entry applies.
func Wrap(err error, msg string, t Type) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:       Code(string(t) + ".WRAPPED"),
		Type:       t,
		Message:    msg,
		HTTPStatus: defaultStatus(t),
		cause:      err,
	}
}

// IsType reports whether err is (or wraps) an *Error of the given type.
func IsType(err error, t Type) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

// AsError extracts an *Error from err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func defaultStatus(t Type) int {
	switch t {
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeValidation:
		return http.StatusBadRequest
	case TypeAuthorization:
		return http.StatusUnauthorized
	case TypeBusiness:
		return http.StatusUnprocessableEntity
	case TypeExternal:
		return http.StatusBadGateway
	case TypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Package apperr is the closed error taxonomy shared by every layer.
//
// Errors are built with samber/oops so they carry a code and structured
// context, and they always wrap exactly one Kind sentinel so that callers
// can branch on KindOf(err) without string matching.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

type Kind string

const (
	KindValidation         Kind = "validation"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindTokenExpired       Kind = "token_expired"
	KindTokenInvalid       Kind = "token_invalid"
	KindNotFound           Kind = "not_found"
	KindIntegrityViolation Kind = "integrity_violation"
	KindUnexpected         Kind = "unexpected"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrNotFound           = errors.New("not found")
	ErrIntegrityViolation = errors.New("integrity violation")
	ErrUnexpected         = errors.New("unexpected error")
)

var sentinels = map[Kind]error{
	KindValidation:         ErrValidation,
	KindUnauthorized:       ErrUnauthorized,
	KindForbidden:          ErrForbidden,
	KindTokenExpired:       ErrTokenExpired,
	KindTokenInvalid:       ErrTokenInvalid,
	KindNotFound:           ErrNotFound,
	KindIntegrityViolation: ErrIntegrityViolation,
	KindUnexpected:         ErrUnexpected,
}

// order matters: the more specific token kinds are checked before unauthorized.
var lookupOrder = []Kind{
	KindValidation,
	KindTokenExpired,
	KindTokenInvalid,
	KindUnauthorized,
	KindForbidden,
	KindNotFound,
	KindIntegrityViolation,
	KindUnexpected,
}

// KindOf reports the kind of err. Errors outside the taxonomy are Unexpected.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range lookupOrder {
		if errors.Is(err, sentinels[k]) {
			return k
		}
	}
	return KindUnexpected
}

// Is reports whether err belongs to kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// New builds an error of the given kind with a code and message.
func New(k Kind, code, msg string) error {
	return oops.Code(code).Wrap(wrapKind(k, msg))
}

// Wrap attaches kind and code to an underlying cause, keeping the cause in
// the chain for logging.
func Wrap(k Kind, code string, cause error) error {
	if cause == nil {
		return nil
	}
	return oops.Code(code).Wrap(&kindError{kind: k, msg: cause.Error(), cause: cause})
}

// NotFound is a convenience constructor used by services when a lookup
// came back absent.
func NotFound(resource, id string) error {
	return oops.Code(strings.ToUpper(resource)+"_NOT_FOUND").
		With("id", id).
		Wrap(wrapKind(KindNotFound, resource+" not found"))
}

func Unexpected(code string, cause error) error {
	return Wrap(KindUnexpected, code, cause)
}

type kindError struct {
	kind  Kind
	msg   string
	cause error
}

func wrapKind(k Kind, msg string) error {
	return &kindError{kind: k, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() []error {
	if e.cause != nil {
		return []error{sentinels[e.kind], e.cause}
	}
	return []error{sentinels[e.kind]}
}

// Code returns the oops code attached to err, if any.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	switch c := any(oopsErr.Code()).(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}

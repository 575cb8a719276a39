package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Domain groups errors by how callers are expected to react to them.
type Domain string

const (
	DomainValidation       Domain = "validation"
	DomainNotFound         Domain = "not_found"
	DomainCompliance       Domain = "compliance"
	DomainSequenceConflict Domain = "sequence_conflict"
	DomainArithmetic       Domain = "arithmetic"
	DomainStorage          Domain = "storage"
	DomainDispatch         Domain = "dispatch"
)

type Metadata struct {
	Retryable      bool
	Fatal          bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByDomain = map[Domain]Metadata{
	DomainValidation: {
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	DomainNotFound: {
		PublicMessage:  "resource not found",
		DetailsAllowed: true,
	},
	DomainCompliance: {
		PublicMessage:  "compliance requirements not met",
		DetailsAllowed: true,
	},
	DomainSequenceConflict: {
		Fatal:         true,
		PublicMessage: "invoice sequence conflict",
	},
	DomainArithmetic: {
		PublicMessage:  "invalid amount",
		DetailsAllowed: true,
	},
	DomainStorage: {
		Retryable:     true,
		PublicMessage: "storage unavailable",
	},
	DomainDispatch: {
		Retryable:     true,
		PublicMessage: "payout dispatch failed",
	},
}

// MetadataFor returns the handling metadata for a domain.
func MetadataFor(domain Domain) Metadata {
	if meta, ok := metadataByDomain[domain]; ok {
		return meta
	}
	return Metadata{PublicMessage: "internal error"}
}

// Error is the structured error contract exposed to upstream translators:
// a domain, a stable numeric code and a snake_case key.
type Error struct {
	domain  Domain
	code    int
	key     string
	message string
	field   string
	cause   error
}

func New(domain Domain, code int, key, message string) *Error {
	return &Error{domain: domain, code: code, key: key, message: message}
}

func (e *Error) Domain() Domain {
	if e == nil {
		return ""
	}
	return e.domain
}

func (e *Error) Code() int {
	if e == nil {
		return 0
	}
	return e.code
}

func (e *Error) Key() string {
	if e == nil {
		return ""
	}
	return e.key
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Field() string {
	if e == nil {
		return ""
	}
	return e.field
}

// WithField returns a copy carrying field-level detail. Sentinels stay untouched.
func (e *Error) WithField(field string) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.field = strings.TrimSpace(field)
	return &clone
}

// WithMessage returns a copy with a more specific message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.message = fmt.Sprintf(format, args...)
	return &clone
}

// Wrap returns a copy that records cause.
func (e *Error) Wrap(cause error) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.cause = cause
	return &clone
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d] %s", e.domain, e.code, e.key)
	if e.message != "" {
		b.WriteString(": ")
		b.WriteString(e.message)
	}
	if e.field != "" {
		fmt.Fprintf(&b, " (field=%s)", e.field)
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches on domain and code so copies made by WithField or Wrap still
// compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.domain == t.domain && e.code == t.code
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

func IsDomain(err error, domain Domain) bool {
	typed := As(err)
	return typed != nil && typed.domain == domain
}

func IsRetryable(err error) bool {
	typed := As(err)
	if typed == nil {
		return false
	}
	return MetadataFor(typed.domain).Retryable
}

func IsFatal(err error) bool {
	typed := As(err)
	if typed == nil {
		return false
	}
	return MetadataFor(typed.domain).Fatal
}

package tenant

import (
	"errors"
	"fmt"
)

// Kind classifies tenant errors so the HTTP layer can map them without string matching.
type Kind int

const (
	KindInternal Kind = iota
	KindTenantCodeEmpty
	KindTenantNotFound
	KindUninitializedContext
	KindConflict
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindTenantCodeEmpty:
		return "tenant_code_empty"
	case KindTenantNotFound:
		return "tenant_not_found"
	case KindUninitializedContext:
		return "uninitialized_context"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

// Error is a tagged tenant error. Two errors match under errors.Is when their kinds match.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrTenantCodeEmpty      = &Error{Kind: KindTenantCodeEmpty, Msg: "Tenant code cannot be empty"}
	ErrTenantNotFound       = &Error{Kind: KindTenantNotFound, Msg: "Tenant not found"}
	ErrUninitializedContext = &Error{Kind: KindUninitializedContext, Msg: "Tenant context is not initialized"}
	ErrCodeConflict         = &Error{Kind: KindConflict, Msg: "Tenant code already exists"}
	ErrInvalidInput         = &Error{Kind: KindInvalid, Msg: "Invalid tenant input"}
)

// notFoundByCode does not say whether the tenant is missing or inactive.
func notFoundByCode(code string) error {
	return &Error{Kind: KindTenantNotFound, Msg: fmt.Sprintf("Tenant with code %s not found or is inactive", code)}
}

func conflictCode(code string) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf("Tenant with code %s already exists", code)}
}

func invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the tagged kind of err, KindInternal for anything untagged.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}

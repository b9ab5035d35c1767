// Package policy decides what a caller may do. Gates run before a handler
// and reject the request; scopes narrow the rows a handler can reach.
package policy

import (
	"net/http"

	"github.com/kutbudev/cardboard/internal/auth"
	"github.com/kutbudev/cardboard/internal/errors"
	"github.com/kutbudev/cardboard/internal/repository"
)

// Gate admits or rejects a request before its handler runs.
type Gate interface {
	Check(method string, id auth.Identity) error
}

// GateFunc adapts a function to Gate.
type GateFunc func(method string, id auth.Identity) error

func (f GateFunc) Check(method string, id auth.Identity) error { return f(method, id) }

// IsSafe reports whether method only reads.
func IsSafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// ReadOpenWriteStaff lets anyone read and only staff write.
var ReadOpenWriteStaff GateFunc = func(method string, id auth.Identity) error {
	if IsSafe(method) || id.IsStaff() {
		return nil
	}
	return errors.ErrPermissionDenied
}

// Authenticated admits any authenticated caller.
var Authenticated GateFunc = func(_ string, id auth.Identity) error {
	if id.IsAuthenticated() {
		return nil
	}
	return errors.ErrNotAuthenticated
}

// Action names an operation on a card.
type Action string

const (
	List        Action = "list"
	Retrieve    Action = "retrieve"
	Create      Action = "create"
	Update      Action = "update"
	Delete      Action = "delete"
	UploadImage Action = "upload_image"
)

// OwnerScope restricts card queries to the caller's rows.
type OwnerScope struct {
	// ScopeRetrieve also restricts single card reads. When false any
	// authenticated caller can read any card by id.
	ScopeRetrieve bool
}

// Scope returns the scope for action performed by id.
func (o OwnerScope) Scope(action Action, id auth.Identity) repository.Scope {
	if action == Retrieve && !o.ScopeRetrieve {
		return repository.NoScope
	}
	return repository.OwnedBy(id.UserID())
}

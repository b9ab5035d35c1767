package errors

import (
	"net/http"
)

func BadRequest() Enricher   { return WithCode(http.StatusBadRequest) }
func Unauthorized() Enricher { return WithCode(http.StatusUnauthorized) }
func Forbidden() Enricher    { return WithCode(http.StatusForbidden) }
func NotFound() Enricher     { return WithCode(http.StatusNotFound) }

// Details rendered for the common failures.
const (
	NotFoundDetail         = "Not found."
	PermissionDeniedDetail = "You do not have permission to perform this action."
	NotAuthenticatedDetail = "Authentication credentials were not provided."
)

var (
	ErrNotFound         = New(NotFoundDetail, NotFound())
	ErrPermissionDenied = New(PermissionDeniedDetail, Forbidden())
	ErrNotAuthenticated = New(NotAuthenticatedDetail, Unauthorized())
)

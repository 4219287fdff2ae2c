package server

import (
	"errors"
	"net/http"
)

type errorKind int

const (
	kindBadRequest errorKind = iota + 1
	kindForbidden
	kindNotFound
	kindConflict
	kindPreconditionFailed
	kindInternal
)

// apiError carries the error taxonomy handlers translate to HTTP statuses.
// Every engine operation validates inputs and preconditions before mutating
// state, so the kind reflects the first check that failed.
type apiError struct {
	kind    errorKind
	message string
}

func (e *apiError) Error() string { return e.message }

func errBadRequest(message string) error {
	return &apiError{kind: kindBadRequest, message: message}
}

func errForbidden(message string) error {
	return &apiError{kind: kindForbidden, message: message}
}

func errNotFound(message string) error {
	return &apiError{kind: kindNotFound, message: message}
}

func errConflict(message string) error {
	return &apiError{kind: kindConflict, message: message}
}

func errPreconditionFailed(message string) error {
	return &apiError{kind: kindPreconditionFailed, message: message}
}

func errInternal(message string) error {
	return &apiError{kind: kindInternal, message: message}
}

func errorStatus(err error) int {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	switch apiErr.kind {
	case kindBadRequest:
		return http.StatusBadRequest
	case kindForbidden:
		return http.StatusForbidden
	case kindNotFound:
		return http.StatusNotFound
	case kindConflict:
		return http.StatusConflict
	case kindPreconditionFailed:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

func writeAPIError(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), err.Error())
}

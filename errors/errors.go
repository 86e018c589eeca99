package errors

import (
	"errors"
	"net/http"
)

var (
	InvalidArgument = HttpError{http.StatusBadRequest, "invalid-argument", errors.New("invalid argument")}
	Unauthenticated = HttpError{http.StatusUnauthorized, "unauthenticated", errors.New("unauthenticated")}
	Internal        = HttpError{http.StatusInternalServerError, "internal", errors.New("internal server error")}
)

// HttpError is a classified caller-facing error. Status is the stable machine readable
// classification returned to clients next to the message.
type HttpError struct {
	Code   int
	Status string
	Err    error
}

func (h HttpError) Unwrap() error {
	return h.Err
}

func (h HttpError) Error() string {
	return h.Err.Error()
}

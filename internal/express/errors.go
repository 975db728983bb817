package express

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUploadCancelled indicates the caller cancelled an upload in flight.
	ErrUploadCancelled = errors.New("upload cancelled")
	// ErrNoToken indicates the anti-forgery endpoint returned no usable token.
	ErrNoToken = errors.New("anti-forgery token unavailable")
	// ErrMalformedResponse indicates a response body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError reports a non-success HTTP status for one remote operation.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Op, e.Code, http.StatusText(e.Code))
}

func success(code int) bool {
	return code >= 200 && code < 300
}

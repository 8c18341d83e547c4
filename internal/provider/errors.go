package provider

import (
	"fmt"

	"github.com/petasbytes/aichat/internal/apperr"
)

// ErrEmptyReply is returned when the upstream call succeeded but carried no text.
var ErrEmptyReply = &apperr.Error{Kind: apperr.KindUpstreamFailure, Message: "the model returned an empty reply"}

// UpstreamError is a failed model call. Status is the HTTP status, or 0
// when the request never got a response.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream: connection failed: %v", e.Err)
	}
	return fmt.Sprintf("upstream: status %d: %v", e.Status, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) ErrorKind() apperr.Kind { return apperr.KindUpstreamFailure }

// Advice is the user-facing explanation for e.
func (e *UpstreamError) Advice() string { return Advice(e.Status) }

var advice = map[int]string{
	0:   "connection failed, check the network, proxy or configuration",
	400: "malformed request, check the parameter configuration",
	401: "API key invalid or expired, check the configuration",
	402: "insufficient account balance",
	403: "access denied, insufficient permissions",
	404: "model or endpoint does not exist",
	422: "parameter validation failed, check the request format",
	429: "rate limited, try again later",
	500: "upstream internal error, try again later",
	502: "bad gateway, network connection problem",
	503: "service unavailable, upstream overloaded",
	504: "gateway timeout, check the network connection",
}

// Advice maps an HTTP status to advisory text.
func Advice(status int) string {
	if s, ok := advice[status]; ok {
		return s
	}
	return fmt.Sprintf("unknown error (%d)", status)
}

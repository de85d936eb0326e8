package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking upstream details.
var (
	ErrNotFound           = errors.New("not found")
	ErrBadRequest         = errors.New("bad request")
	ErrUpstreamAuth       = errors.New("upstream authentication failed")
	ErrUpstreamCreation   = errors.New("presentation request creation failed")
	ErrUnknownCorrelation = errors.New("unknown or expired request")
)

package model

import "errors"

var (
	// ErrInvalidRequirements is the only error surfaced by the pipeline to
	// its caller.
	ErrInvalidRequirements = errors.New("invalid server requirements")

	// ErrGatewayUnavailable means no completion provider or credential is configured.
	ErrGatewayUnavailable = errors.New("completion gateway unavailable")

	// ErrGatewayError covers remote failures, timeouts, cancellation and
	// empty responses.
	ErrGatewayError = errors.New("completion gateway error")

	// ErrMalformedArtifact means post-processing found no usable source text.
	ErrMalformedArtifact = errors.New("malformed artifact")
)

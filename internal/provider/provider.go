// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the LLM backends that answer user messages.
package provider

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// PROVIDER CONTRACT
// =============================================================================

// Provider is a backend capable of answering a user message.
type Provider interface {
	// Name identifies the provider in logs and reply labels.
	Name() string

	// SendMessage sends one user message and returns the reply text.
	// Failures are reported as *Error so callers can branch on Reason.
	SendMessage(ctx context.Context, text string) (string, error)
}

// =============================================================================
// ERRORS
// =============================================================================

// Reason classifies a provider failure.
type Reason int

const (
	// ReasonGeneric covers network faults and unclassified API errors.
	ReasonGeneric Reason = iota

	// ReasonInvalidKey means the API rejected the credential.
	ReasonInvalidKey

	// ReasonQuotaExceeded means the account is rate limited or out of quota.
	ReasonQuotaExceeded

	// ReasonPermissionDenied means the key lacks access to the model.
	ReasonPermissionDenied

	// ReasonEmptyResponse means the API returned no usable content,
	// typically because the reply was blocked by a content filter.
	ReasonEmptyResponse
)

// String returns a human-readable reason label.
func (r Reason) String() string {
	switch r {
	case ReasonInvalidKey:
		return "invalid API key"
	case ReasonQuotaExceeded:
		return "quota exceeded"
	case ReasonPermissionDenied:
		return "permission denied"
	case ReasonEmptyResponse:
		return "empty or blocked response"
	default:
		return "provider error"
	}
}

// Error is the failure type every provider returns.
type Error struct {
	Provider string
	Reason   Reason
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error, so errors.Is(err, ErrProvider) detects the
// class without caring about the reason.
func (e *Error) Is(target error) bool {
	if other, ok := target.(*Error); ok {
		return other.Provider == "" || other.Provider == e.Provider
	}
	return false
}

// ErrProvider is the sentinel for errors.Is checks.
var ErrProvider = &Error{}

// =============================================================================
// SHARED HTTP PLUMBING
// =============================================================================

const (
	// DefaultTimeout bounds a single provider request.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps the bytes read from a provider response.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// defaultRequestsPerMinute throttles outbound provider calls.
	defaultRequestsPerMinute = 30
)

// sharedHTTPClient pools connections across all provider requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// newLimiter returns the per-provider outbound rate limiter.
func newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(defaultRequestsPerMinute)/60, 1)
}

// readResponse reads a response body with the size cap applied.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// backoffDelay returns the exponential delay before the given retry
// attempt (attempt 1 -> 500ms, 2 -> 1s, 3 -> 2s).
func backoffDelay(attempt int) time.Duration {
	d := 500 * time.Millisecond << (attempt - 1)
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}

// retryable reports whether an HTTP status is worth retrying. Quota
// errors (429) are not retried: the orchestrator falls back instead.
func retryable(status int) bool {
	return status >= 500
}

package utils

import (
	"context"
	"errors"
	"net"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrMalformedURL     = errors.New("malformed URL")                    // Seed or discovered link failed to parse
	ErrTransport        = errors.New("transport failure")                // Fetch could not complete (DNS, TCP, TLS, timeout)
	ErrRetryFailed      = errors.New("request failed after all retries") // Wraps the last underlying error
	ErrClientHTTPError  = errors.New("client HTTP error (4xx)")          // Wraps original status
	ErrServerHTTPError  = errors.New("server HTTP error (5xx)")          // Wraps original status
	ErrOtherHTTPError   = errors.New("other HTTP error (non-2xx)")       // Wraps original status
	ErrPolicyDenied     = errors.New("disallowed by robots policy")
	ErrAlreadyVisited   = errors.New("already visited")
	ErrMaxDepthExceeded = errors.New("maximum crawl depth exceeded")
	ErrRequestCreation  = errors.New("failed to create HTTP request")
	ErrResponseBodyRead = errors.New("failed to read response body")
	ErrDatabase         = errors.New("database error") // Wraps badger errors
	ErrConfigValidation = errors.New("configuration validation error")
)

// IsNonSuccessStatus reports whether err is one of the HTTP status sentinels,
// i.e. the server answered but signaled failure.
func IsNonSuccessStatus(err error) bool {
	return errors.Is(err, ErrClientHTTPError) || errors.Is(err, ErrServerHTTPError) || errors.Is(err, ErrOtherHTTPError)
}

// CategorizeError maps an error to a predefined category string for logging.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrRetryFailed):
		// The retry wrapper joins two %w verbs, so inspect the chain with errors.Is
		if errors.Is(err, ErrServerHTTPError) {
			return "RetryFailed_HTTPServer"
		}
		if errors.Is(err, ErrClientHTTPError) {
			return "RetryFailed_HTTPClient"
		}
		return "RetryFailed_" + networkCategory(err, "NetworkOther")
	case errors.Is(err, ErrClientHTTPError):
		errMsg := err.Error()
		for _, code := range []string{"401", "403", "404", "429"} {
			if strings.Contains(errMsg, " "+code+" ") {
				return "HTTP_" + code
			}
		}
		return "HTTP_4xx"
	case errors.Is(err, ErrServerHTTPError):
		return "HTTP_5xx"
	case errors.Is(err, ErrOtherHTTPError):
		return "HTTP_OtherStatus"
	case errors.Is(err, ErrPolicyDenied):
		return "Policy_Robots"
	case errors.Is(err, ErrAlreadyVisited):
		return "Policy_AlreadyVisited"
	case errors.Is(err, ErrMaxDepthExceeded):
		return "Policy_MaxDepth"
	case errors.Is(err, ErrMalformedURL):
		return "Input_MalformedURL"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrResponseBodyRead):
		return "Network_BodyRead"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	// Context errors are checked before ErrTransport so a per-page timeout
	// surfaces as a deadline, not a generic network failure.
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	if errors.Is(err, ErrTransport) {
		return networkCategory(err, "Network_Other")
	}

	return networkCategory(err, "Unknown")
}

// networkCategory inspects common net error shapes and message fragments.
func networkCategory(err error, fallback string) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Network_Timeout"
	}

	lowerErrMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lowerErrMsg, "timeout") || strings.Contains(lowerErrMsg, "deadline exceeded"):
		return "Network_TimeoutGeneric"
	case strings.Contains(lowerErrMsg, "connection refused"):
		return "Network_ConnectionRefused"
	case strings.Contains(lowerErrMsg, "no such host"):
		return "Network_DNSLookup"
	case strings.Contains(lowerErrMsg, "tls") || strings.Contains(lowerErrMsg, "certificate"):
		return "Network_TLS"
	case strings.Contains(lowerErrMsg, "reset by peer"):
		return "Network_ConnectionReset"
	case strings.Contains(lowerErrMsg, "broken pipe"):
		return "Network_BrokenPipe"
	}
	return fallback
}

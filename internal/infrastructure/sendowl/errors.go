package sendowl

import "fmt"

// NotFoundError reports an order that does not exist upstream (HTTP 404).
type NotFoundError struct {
	OrderID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}

// UpstreamError reports a non-2xx answer other than the recognized-empty
// cases, carrying the response body for diagnostics.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Detail)
}

// TimeoutError reports a request that exceeded the configured timeout after
// the transport retries were exhausted.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// MalformedResponseError reports a JSON shape outside the recognized set,
// which usually means the upstream contract drifted.
type MalformedResponseError struct {
	Endpoint string
	Detail   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s response: %s", e.Endpoint, e.Detail)
}

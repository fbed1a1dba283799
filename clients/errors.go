package clients

import "fmt"

// APIError is a non-2xx response from the upstream API. Detail carries the
// backend-supplied message when the body was parseable JSON.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

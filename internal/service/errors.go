package service

import (
	"fmt"
	"io"
	"net/http"
)

// APIError is returned when an upstream API answers with a non-200 status.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: API request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: API request failed with status %d", e.Provider, e.StatusCode)
}

func newAPIError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &APIError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
}

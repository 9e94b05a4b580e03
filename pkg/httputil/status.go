package httputil

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/matzehuels/keygraph/pkg/errors"
)

// maxErrorBody bounds how much of an error response is read for its
// message.
const maxErrorBody = 4 << 10

// CheckStatus returns nil for 2xx responses and a coded error otherwise.
// It reads, but does not close, the body of failed responses.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := errorMessage(resp.Body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "status %d: %s", code, msg)
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "status %d: %s", code, msg)
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "status %d: %s", code, msg)}
	default:
		return errors.New(errors.ErrCodeNetwork, "status %d: %s", code, msg)
	}
}

// errorMessage extracts {"error":{"message":...}} from body, falling back
// to the raw text.
func errorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return ""
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return strings.TrimSpace(string(data))
}

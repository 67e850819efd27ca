package oauth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState  = errors.New("invalid or expired oauth state")
	ErrNotConfigured = errors.New("oauth provider not configured")
)

const maxErrorBody = 2048

// ExchangeError reports a failed code exchange or identity lookup.
// StatusCode is zero when the provider was never reached (network error,
// timeout). Body is the provider's raw diagnostic text.
type ExchangeError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider exchange failed: status %d: %s", e.StatusCode, e.Body)
	}
	if e.Body != "" {
		return fmt.Sprintf("provider exchange failed: %v: %s", e.Err, e.Body)
	}
	return fmt.Sprintf("provider exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Rejected reports whether the provider answered with a 4xx, as opposed
// to being unreachable or failing on its side.
func (e *ExchangeError) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}

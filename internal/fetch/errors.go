package fetch

import "fmt"

// FetchError reports that a URL could not be retrieved after all retries.
// It carries the terminal HTTP status (0 when the failure was at the
// transport level) so callers can distinguish a 404 from a timeout.
type FetchError struct {
	// URL is the request URL that failed.
	URL string

	// StatusCode is the final HTTP status, or 0 for transport errors.
	StatusCode int

	// Attempts is the number of tries made, including the first.
	Attempts int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempts", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %v after %d attempts", e.URL, e.Err, e.Attempts)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *FetchError) Unwrap() error {
	return e.Err
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownIdentifier is returned when an identifier has no catalog URL
	ErrUnknownIdentifier = errors.New("identifier not in catalog")

	// ErrNoCandidates is returned when a comparison search yields no usable listings
	ErrNoCandidates = errors.New("no candidates in search results")

	// ErrLowConfidence is returned when the match confidence is below the threshold
	ErrLowConfidence = errors.New("match confidence below threshold")

	// ErrBrowserUnavailable is returned when the browser session cannot be started
	ErrBrowserUnavailable = errors.New("browser session unavailable")
)

// FetchError reports a failed page retrieval. The fetch layer treats these
// as transient and retries before giving up.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError reports markup that arrived but did not contain the
// expected fields. Retrying the fetch does not help.
type ExtractionError struct {
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Field, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

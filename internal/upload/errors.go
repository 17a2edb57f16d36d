package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrNoConnectivity means the reachability probe failed
	ErrNoConnectivity = errors.New("upload: no connectivity")

	// ErrMissing means the artifact file was gone before upload started
	ErrMissing = errors.New("upload: artifact file missing")
)

// TransportError is a non-2xx answer from the collection endpoint
type TransportError struct {
	StatusCode int
	Status     string
}

func (e *TransportError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("upload rejected: %s", e.Status)
	}
	return fmt.Sprintf("upload rejected: HTTP %d", e.StatusCode)
}

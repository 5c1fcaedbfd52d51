package upload

import "fmt"

// TransportError reports a network-level failure: the request never reached
// the analysis service or the connection broke before a response arrived.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError reports that the analysis service answered but signalled
// failure: a non-success status, an envelope with success=false, or a body
// that could not be parsed.
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("server error during %s (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error during %s: %s", e.Op, e.Message)
}

package remote

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEndpointConfig = errors.New("remote: invalid endpoint configuration")
	ErrTransport             = errors.New("remote: transport failure")
	ErrUnexpectedStatus      = errors.New("remote: unexpected response status")
	ErrUnexpectedResponse    = errors.New("remote: unexpected response body")
	ErrMissingTable          = errors.New("remote: rule needs a table or collection attribute")

	ErrFailedToParseRedisConnString = errors.New("remote: failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("remote: redis did not become ready within the given time period")
	ErrFailedToParseDBConfig        = errors.New("remote: failed to parse postgres config")
	ErrFailedToOpenDBConnection     = errors.New("remote: failed to open postgres connection")
	ErrFailedToConnectToMongo       = errors.New("remote: failed to connect to mongo")
)

// TransportError reports a failed call to an endpoint. It matches
// ErrTransport with errors.Is and unwraps to the underlying cause.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("remote: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

func transportError(endpoint string, err error) error {
	return &TransportError{Endpoint: endpoint, Err: err}
}

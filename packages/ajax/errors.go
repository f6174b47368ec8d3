package ajax

import "errors"

var (
	// ErrNoTransport is returned when no factory in the chain could build a transport.
	ErrNoTransport = errors.New("no compatible transport")
	// ErrInvalidState is returned when a transport call is made out of order.
	ErrInvalidState = errors.New("transport in invalid state")
	// ErrUnsupportedMethod is returned for methods other than GET, POST, PUT and DELETE.
	ErrUnsupportedMethod = errors.New("unsupported method")
	// ErrInvalidURL is returned when a request URL cannot be opened.
	ErrInvalidURL = errors.New("invalid URL")
)

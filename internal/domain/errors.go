package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// GatewayError represents a failed venue call. Timeouts and transport
// drops are retriable; venue rejections are not.
type GatewayError struct {
	Op        string // Operation that failed (e.g., "placeOrder", "settle")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *GatewayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *GatewayError) IsRetriable() bool {
	return e.Retriable
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a retriable gateway error
func NewGatewayError(op string, err error) *GatewayError {
	return &GatewayError{Op: op, Err: err, Retriable: true}
}

// NewFatalGatewayError creates a non-retriable gateway error
func NewFatalGatewayError(op string, err error) *GatewayError {
	return &GatewayError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrQueueOverflow is returned by the event stream interpreter when the
	// venue ring buffer wrapped past events we have not read. The missed
	// events are unrecoverable; the caller must rebuild state from a full
	// book snapshot.
	ErrQueueOverflow = errors.New("event queue overflow")

	// ErrTruncatedBuffer is returned when an account payload is shorter
	// than its declared layout. Never retriable.
	ErrTruncatedBuffer = errors.New("truncated account buffer")

	// ErrBadPadding is returned when an account payload does not start
	// with the venue head padding. Never retriable.
	ErrBadPadding = errors.New("bad account padding")

	// ErrOrderRejected is returned when the venue refuses a place or
	// cancel outright. Not retriable as-is.
	ErrOrderRejected = errors.New("order rejected")

	// ErrNotConnected is returned when a venue call is attempted while
	// the gateway socket is down. Retriable once reconnected.
	ErrNotConnected = errors.New("gateway not connected")
)

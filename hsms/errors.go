package hsms

import "errors"

var (
	// ErrMalformedFrame indicates a frame or message that can't be decoded, e.g. a length prefix
	// smaller than the header, or a body that isn't a valid SECS-II item.
	ErrMalformedFrame = errors.New("hsms: malformed frame")

	// ErrInvalidStreamCode indicates that an invalid stream code was provided.
	// Valid stream codes are in the range of 0 to 127.
	ErrInvalidStreamCode = errors.New("hsms: invalid stream code, should be in range of [0, 127]")

	// ErrUnexpectedMessage indicates that a response was built from a message of the wrong type.
	ErrUnexpectedMessage = errors.New("hsms: unexpected message type")
)

var (
	// ErrNotConnected indicates that an operation requires an open connection.
	ErrNotConnected = errors.New("hsms: not connected")

	// ErrConnection indicates that opening the connection or writing to it failed.
	// The underlying cause is wrapped along with it.
	ErrConnection = errors.New("hsms: connection error")

	// ErrConnClosed indicates that the connection was closed while a reply was pending.
	ErrConnClosed = errors.New("hsms: connection closed")

	// ErrTimeout indicates that no reply arrived within the reply timeout.
	ErrTimeout = errors.New("hsms: reply timeout")

	// ErrDuplicateSystemBytes indicates that a request was sent with system bytes that are
	// still awaiting a reply.
	ErrDuplicateSystemBytes = errors.New("hsms: duplicate system bytes")

	// ErrRejected indicates that the peer answered a request with a Reject.req message.
	ErrRejected = errors.New("hsms: request rejected")

	// ErrSelectFailed indicates that the peer refused the Select.req.
	ErrSelectFailed = errors.New("hsms: select failed")
)

// ErrConnConfigNil indicates that a nil ConnectionConfig was provided.
var ErrConnConfigNil = errors.New("hsms: connection config is nil")

package hsms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/go-hsms/secs2"
)

// Message is an HSMS message: a header and an optional SECS-II body.
//
// Control messages never carry a body. A nil Body means the body is absent and nothing
// follows the header on the wire.
type Message struct {
	Header Header
	Body   secs2.Item
}

// Encode serializes the message into header bytes followed by the encoded body, without the
// 4-byte length prefix.
func (msg *Message) Encode() ([]byte, error) {
	return msg.AppendTo(make([]byte, 0, HeaderSize+64))
}

// AppendTo appends the encoded message to dst.
func (msg *Message) AppendTo(dst []byte) ([]byte, error) {
	dst = msg.Header.AppendTo(dst)
	if msg.Body == nil {
		return dst, nil
	}

	return msg.Body.AppendBytes(dst)
}

// DecodeMessage decodes a message from b, which contains the header followed by the body.
//
// When bytes remain after the header, they must hold exactly one SECS-II item. Errors wrap
// ErrMalformedFrame, together with the secs2 error describing the body defect.
func DecodeMessage(b []byte) (*Message, error) {
	header, err := DecodeHeader(b)
	if err != nil {
		return nil, err
	}

	msg := &Message{Header: header}
	if len(b) == HeaderSize {
		return msg, nil
	}

	body, err := secs2.Decode(b[HeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: system bytes %d: %w", ErrMalformedFrame, header.SystemBytes, err)
	}
	msg.Body = body

	return msg, nil
}

// Type returns the session type of the message.
func (msg *Message) Type() SType { return msg.Header.SType }

// ID returns the system bytes as an uint32.
func (msg *Message) ID() uint32 { return msg.Header.SystemBytes }

// TraceID returns the decimal representation of the system bytes, used to follow a
// transaction across log records.
func (msg *Message) TraceID() string {
	return strconv.FormatUint(uint64(msg.Header.SystemBytes), 10)
}

func (msg *Message) StreamCode() uint8   { return msg.Header.Stream }
func (msg *Message) FunctionCode() uint8 { return msg.Header.Function }
func (msg *Message) WaitBit() bool       { return msg.Header.WBit }

// IsDataMessage reports whether the message carries SECS-II data.
func (msg *Message) IsDataMessage() bool { return msg.Header.SType == DataMsgType }

// IsControlMessage reports whether the message is a control message.
func (msg *Message) IsControlMessage() bool { return msg.Header.SType != DataMsgType }

// IsPrimary reports whether the message is a primary data message, i.e. has an odd function code.
func (msg *Message) IsPrimary() bool {
	return msg.IsDataMessage() && msg.Header.Function%2 == 1
}

// SelectStatus returns the status of a Select.rsp message.
//
// The status is written into the stream byte by this package. Equipment following SEMI E37
// strictly writes it into the function byte, so the non-zero one of the two is returned.
func (msg *Message) SelectStatus() SelectStatus {
	if msg.Header.Stream != 0 {
		return SelectStatus(msg.Header.Stream)
	}

	return SelectStatus(msg.Header.Function)
}

// RejectReason returns the reason code of a Reject.req message.
func (msg *Message) RejectReason() byte {
	return msg.Header.Function
}

// Clone creates a deep copy of the message.
func (msg *Message) Clone() *Message {
	clone := &Message{Header: msg.Header}
	if msg.Body != nil {
		clone.Body = msg.Body.Clone()
	}

	return clone
}

// SMLHeader returns the SML header of a data message, e.g. "S6F11 W".
func (msg *Message) SMLHeader() string {
	header := fmt.Sprintf("S%dF%d", msg.Header.Stream, msg.Header.Function)
	if msg.Header.WBit {
		header += " W"
	}

	return header
}

// ToSML returns the SML representation of a data message, or the session type name of a
// control message.
func (msg *Message) ToSML() string {
	if msg.IsControlMessage() {
		return msg.Header.SType.String()
	}

	if msg.Body == nil {
		return msg.SMLHeader() + "\n."
	}

	var sb strings.Builder
	header := msg.SMLHeader()
	body := msg.Body.ToSML()

	sb.Grow(len(header) + len(body) + 3)
	sb.WriteString(header)
	sb.WriteByte('\n')
	sb.WriteString(body)
	sb.WriteString("\n.")

	return sb.String()
}

// String implements fmt.Stringer.
func (msg *Message) String() string {
	if msg.IsControlMessage() {
		return fmt.Sprintf("%s session=%d id=%d", msg.Header.SType, msg.Header.SessionID, msg.Header.SystemBytes)
	}

	return fmt.Sprintf("%s session=%d id=%d", msg.SMLHeader(), msg.Header.SessionID, msg.Header.SystemBytes)
}

// MsgInfo returns structured log fields describing msg, appended after keyValues.
func MsgInfo(msg *Message, keyValues ...any) []any {
	return msgInfo(msg, false, keyValues...)
}

// MsgInfoSML returns structured log fields describing msg including its SML body.
func MsgInfoSML(msg *Message, keyValues ...any) []any {
	return msgInfo(msg, true, keyValues...)
}

func msgInfo(msg *Message, sml bool, keyValues ...any) []any { //nolint:revive
	info := []any{
		"id", msg.ID(),
		"type", msg.Type().String(),
		"s", msg.StreamCode(),
		"f", msg.FunctionCode(),
	}

	if sml && msg.Body != nil {
		info = append(info, "sml", msg.Body.ToSML())
	}

	result := make([]any, 0, len(keyValues)+len(info))
	result = append(result, keyValues...)
	result = append(result, info...)

	return result
}

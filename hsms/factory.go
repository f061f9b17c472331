package hsms

import (
	"fmt"

	"github.com/arloliu/go-hsms/secs2"
)

// controlSessionID is the session id of session-less control messages.
const controlSessionID = 0xFFFF

// NewDataMessage creates a data message.
//
// stream should be in range of [0, 127], otherwise ErrInvalidStreamCode is returned.
// wbit is the reply-expected flag, body is the optional SECS-II body.
func NewDataMessage(stream byte, function byte, wbit bool, sessionID uint16, systemBytes uint32, body secs2.Item) (*Message, error) {
	if stream > MaxStreamCode {
		return nil, fmt.Errorf("%w: S%d", ErrInvalidStreamCode, stream)
	}

	return &Message{
		Header: Header{
			SessionID:   sessionID,
			Stream:      stream,
			WBit:        wbit,
			Function:    function,
			SType:       DataMsgType,
			SystemBytes: systemBytes,
		},
		Body: body,
	}, nil
}

// NewDataRequest creates a primary data message with the W-bit set.
func NewDataRequest(sessionID uint16, stream byte, function byte, systemBytes uint32, body secs2.Item) (*Message, error) {
	return NewDataMessage(stream, function, true, sessionID, systemBytes, body)
}

// NewDataResponse creates the secondary message answering req: the session, stream and system
// bytes are mirrored, the function code is incremented and the W-bit is cleared.
func NewDataResponse(req *Message, body secs2.Item) (*Message, error) {
	if !req.IsDataMessage() {
		return nil, fmt.Errorf("%w: expected data message, got %s", ErrUnexpectedMessage, req.Type())
	}

	return NewDataMessage(req.Header.Stream, req.Header.Function+1, false, req.Header.SessionID, req.Header.SystemBytes, body)
}

func newControlMessage(sessionID uint16, stype SType, systemBytes uint32) *Message {
	return &Message{
		Header: Header{
			SessionID:   sessionID,
			SType:       stype,
			SystemBytes: systemBytes,
		},
	}
}

// NewSelectReq creates a Select.req control message.
func NewSelectReq(systemBytes uint32) *Message {
	return newControlMessage(controlSessionID, SelectReqType, systemBytes)
}

// NewSelectRsp creates the Select.rsp answering req, carrying status in the stream byte.
func NewSelectRsp(req *Message, status SelectStatus) (*Message, error) {
	if req.Type() != SelectReqType {
		return nil, fmt.Errorf("%w: expected select.req, got %s", ErrUnexpectedMessage, req.Type())
	}

	msg := newControlMessage(req.Header.SessionID, SelectRspType, req.Header.SystemBytes)
	msg.Header.Stream = byte(status)

	return msg, nil
}

// NewDeselectReq creates a Deselect.req control message.
func NewDeselectReq(systemBytes uint32) *Message {
	return newControlMessage(controlSessionID, DeselectReqType, systemBytes)
}

// NewDeselectRsp creates the Deselect.rsp answering req.
// status 0 means that the session is ended, 1 that it was not established, 2 that it's busy.
func NewDeselectRsp(req *Message, status byte) (*Message, error) {
	if req.Type() != DeselectReqType {
		return nil, fmt.Errorf("%w: expected deselect.req, got %s", ErrUnexpectedMessage, req.Type())
	}

	msg := newControlMessage(req.Header.SessionID, DeselectRspType, req.Header.SystemBytes)
	msg.Header.Stream = status

	return msg, nil
}

// NewLinktestReq creates a Linktest.req control message.
func NewLinktestReq(systemBytes uint32) *Message {
	return newControlMessage(controlSessionID, LinkTestReqType, systemBytes)
}

// NewLinktestRsp creates the Linktest.rsp answering req.
func NewLinktestRsp(req *Message) (*Message, error) {
	if req.Type() != LinkTestReqType {
		return nil, fmt.Errorf("%w: expected linktest.req, got %s", ErrUnexpectedMessage, req.Type())
	}

	return newControlMessage(controlSessionID, LinkTestRspType, req.Header.SystemBytes), nil
}

// NewRejectReq creates a Reject.req control message rejecting msg.
//
// The stream byte carries the stype of the rejected message, or its ptype when reason is
// RejectPTypeNotSupported. The function byte carries the reason code.
func NewRejectReq(msg *Message, reason byte) *Message {
	rej := newControlMessage(msg.Header.SessionID, RejectReqType, msg.Header.SystemBytes)
	if reason == RejectPTypeNotSupported {
		rej.Header.Stream = msg.Header.PType & MaxStreamCode
	} else {
		rej.Header.Stream = byte(msg.Header.SType)
	}
	rej.Header.Function = reason

	return rej
}

// NewSeparateReq creates a Separate.req control message, which ends the session immediately.
func NewSeparateReq(systemBytes uint32) *Message {
	return newControlMessage(controlSessionID, SeparateReqType, systemBytes)
}

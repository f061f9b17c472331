package hsms

import "strconv"

// SType is the session type field of the HSMS header, which tells data messages apart from the
// control messages used to manage the connection.
type SType byte

const (
	DataMsgType     SType = 0 // Data message containing SECS-II data
	SelectReqType   SType = 1 // Select request control message
	SelectRspType   SType = 2 // Select response control message
	DeselectReqType SType = 3 // Deselect request control message
	DeselectRspType SType = 4 // Deselect response control message
	LinkTestReqType SType = 5 // Linktest request control message
	LinkTestRspType SType = 6 // Linktest response control message
	RejectReqType   SType = 7 // Reject request control message
	SeparateReqType SType = 9 // Separate request control message, also known as abort
)

var stypeNames = map[SType]string{
	DataMsgType:     "data.msg",
	SelectReqType:   "select.req",
	SelectRspType:   "select.rsp",
	DeselectReqType: "deselect.req",
	DeselectRspType: "deselect.rsp",
	LinkTestReqType: "linktest.req",
	LinkTestRspType: "linktest.rsp",
	RejectReqType:   "reject.req",
	SeparateReqType: "separate.req",
}

// MessageType maps a raw session type byte to its SType.
// Values that aren't a known control type are treated as data messages.
func MessageType(stype byte) SType {
	if _, ok := stypeNames[SType(stype)]; ok {
		return SType(stype)
	}

	return DataMsgType
}

// String implements fmt.Stringer.
func (t SType) String() string {
	if name, ok := stypeNames[t]; ok {
		return name
	}

	return "stype(" + strconv.Itoa(int(t)) + ")"
}

// IsControl reports whether t is a control message type.
func (t SType) IsControl() bool {
	return t != DataMsgType
}

// IsRequest reports whether t is a control request that expects a response.
func (t SType) IsRequest() bool {
	return t == SelectReqType || t == DeselectReqType || t == LinkTestReqType
}

// SelectStatus is the status carried by a Select.rsp message.
type SelectStatus byte

const (
	// SelectStatusEstablished indicates that communication is successfully established.
	SelectStatusEstablished SelectStatus = 0
	// SelectStatusNotReady indicates that communication is not ready.
	SelectStatusNotReady SelectStatus = 1
	// SelectStatusSessionNotFound indicates that the session id is not supported.
	SelectStatusSessionNotFound SelectStatus = 2
	// SelectStatusAlreadySelected indicates that the session is already selected.
	SelectStatusAlreadySelected SelectStatus = 3
)

// String implements fmt.Stringer.
func (s SelectStatus) String() string {
	switch s {
	case SelectStatusEstablished:
		return "established"
	case SelectStatusNotReady:
		return "not ready"
	case SelectStatusSessionNotFound:
		return "session not found"
	case SelectStatusAlreadySelected:
		return "already selected"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Reject reason codes of Reject.req control message.
const (
	RejectSTypeNotSupported  byte = 1 // received message's sType is not supported
	RejectPTypeNotSupported  byte = 2 // received message's pType is not supported
	RejectTransactionNotOpen byte = 3 // response message was received without request
	RejectNotSelected        byte = 4 // data message is received in non-selected state
)

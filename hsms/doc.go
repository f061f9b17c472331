// Package hsms provides the HSMS (High-Speed SECS Message Services, SEMI E37) message layer:
// the 10-byte header, messages with an optional SECS-II body, builders for data and control
// messages, and the length-prefixed frame codec used on the TCP stream.
//
// Message Types:
// The session type (SType) of the header categorizes messages by their function:
//   - DataMsgType:  Data message containing SECS-II data.
//   - SelectReqType, SelectRspType:  Session establishment messages.
//   - DeselectReqType, DeselectRspType: Session termination messages.
//   - LinkTestReqType, LinkTestRspType: Link testing messages.
//   - RejectReqType:  Reject message for errors or rejections.
//   - SeparateReqType:  Separate request message for immediate disconnect.
//
// Any stype byte outside of these values is treated as a data message.
//
// Frames:
// On the wire each message is preceded by a 4-byte big-endian length of the header and body.
// FrameCodec reads and writes whole frames and rejects lengths smaller than the header.
//
// The package also provides the building blocks of a connection: SystemBytesGenerator for
// request correlation and TaskManager for the goroutines of a connection.
package hsms

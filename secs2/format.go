package secs2

import "fmt"

// MaxByteSize defines the maximum value a SECS-II length field can hold (3 bytes).
const MaxByteSize = 1<<24 - 1

// FormatCode is the 6-bit SECS-II format code of a data item, without the length-field width bits.
type FormatCode byte

const (
	ListFormatCode    FormatCode = 0o00
	BinaryFormatCode  FormatCode = 0o10
	BooleanFormatCode FormatCode = 0o11
	ASCIIFormatCode   FormatCode = 0o20
	Int64FormatCode   FormatCode = 0o30
	Int8FormatCode    FormatCode = 0o31
	Int16FormatCode   FormatCode = 0o32
	Int32FormatCode   FormatCode = 0o34
	Float64FormatCode FormatCode = 0o40
	Float32FormatCode FormatCode = 0o44
	Uint64FormatCode  FormatCode = 0o50
	Uint8FormatCode   FormatCode = 0o51
	Uint16FormatCode  FormatCode = 0o52
	Uint32FormatCode  FormatCode = 0o54
)

type formatInfo struct {
	elementSize int // -1 for list
	symbol      string
}

var formatTable = map[FormatCode]formatInfo{
	ListFormatCode:    {elementSize: -1, symbol: "L"},
	BinaryFormatCode:  {elementSize: 1, symbol: "B"},
	BooleanFormatCode: {elementSize: 1, symbol: "BOOLEAN"},
	ASCIIFormatCode:   {elementSize: 1, symbol: "A"},
	Int64FormatCode:   {elementSize: 8, symbol: "I8"},
	Int8FormatCode:    {elementSize: 1, symbol: "I1"},
	Int16FormatCode:   {elementSize: 2, symbol: "I2"},
	Int32FormatCode:   {elementSize: 4, symbol: "I4"},
	Float64FormatCode: {elementSize: 8, symbol: "F8"},
	Float32FormatCode: {elementSize: 4, symbol: "F4"},
	Uint64FormatCode:  {elementSize: 8, symbol: "U8"},
	Uint8FormatCode:   {elementSize: 1, symbol: "U1"},
	Uint16FormatCode:  {elementSize: 2, symbol: "U2"},
	Uint32FormatCode:  {elementSize: 4, symbol: "U4"},
}

// IsValid reports whether fc is one of the supported SECS-II format codes.
func (fc FormatCode) IsValid() bool {
	_, ok := formatTable[fc]
	return ok
}

// ElementSize returns the byte size of a single element, or -1 for a list.
// It returns 0 for an unsupported format code.
func (fc FormatCode) ElementSize() int {
	return formatTable[fc].elementSize
}

// Symbol returns the SML symbol of the format code, e.g. "U4".
func (fc FormatCode) Symbol() string {
	if info, ok := formatTable[fc]; ok {
		return info.symbol
	}

	return fmt.Sprintf("0o%02o", byte(fc))
}

// String implements fmt.Stringer.
func (fc FormatCode) String() string {
	return fc.Symbol()
}

// FormatByte returns the format byte of the item header, which consists of the format code
// and the number of length bytes that follow.
func (fc FormatCode) FormatByte(lenBytes int) byte {
	return byte(fc)<<2 | byte(lenBytes&0x03)
}

// ParseFormatByte splits a format byte into its format code and length-field width.
//
// It returns ErrUnsupportedFormat if the format code is not supported.
func ParseFormatByte(b byte) (FormatCode, int, error) {
	fc := FormatCode(b >> 2)
	lenBytes := int(b & 0x03)

	if !fc.IsValid() {
		return fc, lenBytes, fmt.Errorf("%w: format byte 0x%02x", ErrUnsupportedFormat, b)
	}

	return fc, lenBytes, nil
}

// lengthFieldWidth returns the minimal number of length bytes to represent length.
func lengthFieldWidth(length int) (int, error) {
	switch {
	case length < 0:
		return 0, fmt.Errorf("%w: negative length %d", ErrMalformed, length)
	case length <= 0xFF:
		return 1, nil
	case length <= 0xFFFF:
		return 2, nil
	case length <= MaxByteSize:
		return 3, nil
	default:
		return 0, fmt.Errorf("%w: length %d exceeds %d", ErrValueTooLarge, length, MaxByteSize)
	}
}

// appendHeader appends the format byte and the minimal length field to dst.
//
// length is the child count for a list, the payload byte count otherwise.
func appendHeader(dst []byte, fc FormatCode, length int) ([]byte, error) {
	width, err := lengthFieldWidth(length)
	if err != nil {
		return dst, err
	}

	dst = append(dst, fc.FormatByte(width))
	for i := width - 1; i >= 0; i-- {
		dst = append(dst, byte(length>>(8*i)))
	}

	return dst, nil
}

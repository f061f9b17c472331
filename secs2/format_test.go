package secs2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatCode(t *testing.T) {
	tests := []struct {
		code        FormatCode
		symbol      string
		elementSize int
		formatByte  byte // with one length byte
	}{
		{ListFormatCode, "L", -1, 0x01},
		{BinaryFormatCode, "B", 1, 0x21},
		{BooleanFormatCode, "BOOLEAN", 1, 0x25},
		{ASCIIFormatCode, "A", 1, 0x41},
		{Int64FormatCode, "I8", 8, 0x61},
		{Int8FormatCode, "I1", 1, 0x65},
		{Int16FormatCode, "I2", 2, 0x69},
		{Int32FormatCode, "I4", 4, 0x71},
		{Float64FormatCode, "F8", 8, 0x81},
		{Float32FormatCode, "F4", 4, 0x91},
		{Uint64FormatCode, "U8", 8, 0xa1},
		{Uint8FormatCode, "U1", 1, 0xa5},
		{Uint16FormatCode, "U2", 2, 0xa9},
		{Uint32FormatCode, "U4", 4, 0xb1},
	}

	for _, test := range tests {
		require := require.New(t)

		require.True(test.code.IsValid())
		require.Equal(test.symbol, test.code.String())
		require.Equal(test.elementSize, test.code.ElementSize())
		require.Equal(test.formatByte, test.code.FormatByte(1))

		code, lenBytes, err := ParseFormatByte(test.formatByte)
		require.NoError(err)
		require.Equal(test.code, code)
		require.Equal(1, lenBytes)
	}

	_, _, err := ParseFormatByte(0o77 << 2)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestAppendHeader_LengthWidth(t *testing.T) {
	tests := []struct {
		description string
		length      int
		expected    []byte
		expectedErr error
	}{
		{"zero", 0, []byte{0x21, 0x00}, nil},
		{"one byte max", 255, []byte{0x21, 0xff}, nil},
		{"two bytes min", 256, []byte{0x22, 0x01, 0x00}, nil},
		{"two bytes max", 65535, []byte{0x22, 0xff, 0xff}, nil},
		{"three bytes min", 65536, []byte{0x23, 0x01, 0x00, 0x00}, nil},
		{"three bytes max", MaxByteSize, []byte{0x23, 0xff, 0xff, 0xff}, nil},
		{"too large", MaxByteSize + 1, nil, ErrValueTooLarge},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		require := require.New(t)

		header, err := appendHeader(nil, BinaryFormatCode, test.length)
		if test.expectedErr != nil {
			require.ErrorIs(err, test.expectedErr)
			continue
		}
		require.NoError(err)
		require.Equal(test.expected, header)
	}
}

func TestBinaryItem_WidthRoundTrip(t *testing.T) {
	require := require.New(t)

	for _, size := range []int{255, 256, 65535, 65536} {
		payload := bytes.Repeat([]byte{0x5a}, size)
		data, err := B(payload).ToBytes()
		require.NoError(err)

		decoded, err := Decode(data)
		require.NoError(err)
		require.Equal(size, decoded.Size())
	}
}

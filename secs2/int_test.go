package secs2

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntItem(t *testing.T) {
	tests := []struct {
		description     string  // Test case description
		input           []any   // Input
		byteSize        int     // the byte size of IntItem
		expectedValues  []int64 // expected result from ToInt()
		expectedToBytes []byte  // expected result from ToBytes()
		expectedToSML   string  // expected result from ToSML()
	}{
		{
			description:     "Byte size: 1, data size: 0",
			input:           []any{},
			byteSize:        1,
			expectedValues:  []int64{},
			expectedToBytes: []byte{0x65, 0},
			expectedToSML:   "<I1[0]>",
		},
		{
			description:     "Byte size: 1, min and max",
			input:           []any{math.MinInt8, 0, math.MaxInt8},
			byteSize:        1,
			expectedValues:  []int64{math.MinInt8, 0, math.MaxInt8},
			expectedToBytes: []byte{0x65, 3, 0x80, 0x0, 0x7f},
			expectedToSML:   "<I1[3] -128 0 127>",
		},
		{
			description:     "Byte size: 2, negative one",
			input:           []any{int16(-1), []int16{1}},
			byteSize:        2,
			expectedValues:  []int64{-1, 1},
			expectedToBytes: []byte{0x69, 4, 0xff, 0xff, 0x0, 0x1},
			expectedToSML:   "<I2[2] -1 1>",
		},
		{
			description:     "Byte size: 4, min value",
			input:           []any{int32(math.MinInt32)},
			byteSize:        4,
			expectedValues:  []int64{math.MinInt32},
			expectedToBytes: []byte{0x71, 4, 0x80, 0x0, 0x0, 0x0},
			expectedToSML:   "<I4[1] -2147483648>",
		},
		{
			description:     "Byte size: 8, max value from uint64",
			input:           []any{uint64(math.MaxInt64)},
			byteSize:        8,
			expectedValues:  []int64{math.MaxInt64},
			expectedToBytes: []byte{0x61, 8, 0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
			expectedToSML:   "<I8[1] 9223372036854775807>",
		},
		{
			description:     "Byte size: 2, integer strings",
			input:           []any{"-32768", "0x7fff"},
			byteSize:        2,
			expectedValues:  []int64{math.MinInt16, math.MaxInt16},
			expectedToBytes: []byte{0x69, 4, 0x80, 0x0, 0x7f, 0xff},
			expectedToSML:   "<I2[2] -32768 32767>",
		},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		require := require.New(t)

		item := NewIntItem(test.byteSize, test.input...)
		require.NoError(item.Error())

		values, err := item.ToInt()
		require.NoError(err)
		require.Equal(test.expectedValues, values)

		data, err := item.ToBytes()
		require.NoError(err)
		require.Equal(test.expectedToBytes, data)
		require.Equal(test.expectedToSML, item.ToSML())

		decoded, err := Decode(data)
		require.NoError(err)
		decodedValues, err := decoded.ToInt()
		require.NoError(err)
		require.Equal(test.expectedValues, decodedValues)
	}
}

func TestIntItem_RangeErrors(t *testing.T) {
	tests := []struct {
		description string
		byteSize    int
		input       []any
		expectedErr error
	}{
		{"I1 overflow", 1, []any{128}, ErrValueTooLarge},
		{"I1 underflow", 1, []any{-129}, ErrValueTooLarge},
		{"I2 overflow", 2, []any{[]int32{1, 32768}}, ErrValueTooLarge},
		{"I4 underflow", 4, []any{int64(math.MinInt32) - 1}, ErrValueTooLarge},
		{"I8 overflow from uint64", 8, []any{uint64(math.MaxUint64)}, ErrValueTooLarge},
		{"I8 overflow from uint", 8, []any{uint(math.MaxUint64)}, ErrValueTooLarge},
		{"invalid byte size", 16, []any{1}, ErrInvalidByteSize},
		{"invalid value type", 4, []any{true}, ErrInvalidValue},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		require := require.New(t)

		item := NewIntItem(test.byteSize, test.input...)
		require.ErrorIs(item.Error(), test.expectedErr)

		_, err := item.ToBytes()
		require.ErrorIs(err, test.expectedErr)
	}
}

package secs2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBinaryItem(t *testing.T) {
	tests := []struct {
		description     string // Test case description
		input           []any  // Input
		expectedValues  []byte // expected result from ToBinary()
		expectedToBytes []byte // expected result from ToBytes()
		expectedToSML   string // expected result from ToSML()
	}{
		{
			description:     "Empty binary",
			input:           []any{},
			expectedValues:  []byte{},
			expectedToBytes: []byte{0x21, 0},
			expectedToSML:   "<B[0]>",
		},
		{
			description:     "Mixed byte, slice and int",
			input:           []any{byte(0x01), []byte{0x02, 0x03}, 255},
			expectedValues:  []byte{0x01, 0x02, 0x03, 0xff},
			expectedToBytes: []byte{0x21, 4, 0x01, 0x02, 0x03, 0xff},
			expectedToSML:   "<B[4] 0x01 0x02 0x03 0xFF>",
		},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		require := require.New(t)

		item := NewBinaryItem(test.input...)
		require.NoError(item.Error())
		require.Equal(BinaryFormatCode, item.Type())

		values, err := item.ToBinary()
		require.NoError(err)
		require.Equal(test.expectedValues, values)

		data, err := item.ToBytes()
		require.NoError(err)
		require.Equal(test.expectedToBytes, data)
		require.Equal(test.expectedToSML, item.ToSML())

		decoded, err := Decode(data)
		require.NoError(err)
		decodedValues, err := decoded.ToBinary()
		require.NoError(err)
		require.Equal(test.expectedValues, decodedValues)
	}
}

func TestBinaryItem_Errors(t *testing.T) {
	require := require.New(t)

	require.ErrorIs(NewBinaryItem(256).Error(), ErrValueTooLarge)
	require.ErrorIs(NewBinaryItem([]int{1, -1}).Error(), ErrValueTooLarge)
	require.ErrorIs(NewBinaryItem("ab").Error(), ErrInvalidValue)
}

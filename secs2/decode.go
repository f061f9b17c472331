package secs2

import (
	"fmt"
	"sync"

	"github.com/arloliu/go-hsms/internal/util"
)

// MaxListDepth is the maximum allowed nesting depth of list items when decoding.
const MaxListDepth = 64

var decoderPool = sync.Pool{New: func() any { return new(itemDecoder) }}

// Decode decodes a complete SECS-II message body.
//
// An empty input decodes to an empty list, the representation of a header-only message.
// The input must contain exactly one item; trailing bytes are reported as ErrMalformed.
func Decode(data []byte) (Item, error) {
	if len(data) == 0 {
		return NewListItem(), nil
	}

	item, n, err := DecodeItem(data)
	if err != nil {
		return nil, err
	}

	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes after item", ErrMalformed, len(data)-n)
	}

	return item, nil
}

// DecodeItem decodes the first item in data, and returns the item with the number of bytes consumed.
//
// Errors wrap ErrMalformed, or ErrUnsupportedFormat for an unknown format code.
func DecodeItem(data []byte) (Item, int, error) {
	d, _ := decoderPool.Get().(*itemDecoder)
	d.input = data
	d.pos = 0
	d.depth = 0

	item, err := d.decodeItem()
	n := d.pos

	d.input = nil
	decoderPool.Put(d)

	if err != nil {
		return nil, 0, err
	}

	return item, n, nil
}

type itemDecoder struct {
	input []byte
	pos   int
	depth int
}

func (d *itemDecoder) remaining() int {
	return len(d.input) - d.pos
}

func (d *itemDecoder) read(length int) ([]byte, error) {
	if length > d.remaining() {
		return nil, fmt.Errorf("%w: unexpected end of data at offset %d, need %d bytes, have %d",
			ErrMalformed, d.pos, length, d.remaining())
	}
	result := d.input[d.pos : d.pos+length]
	d.pos += length

	return result, nil
}

func (d *itemDecoder) decodeItem() (Item, error) {
	header, err := d.read(1)
	if err != nil {
		return nil, err
	}

	formatCode, lenBytesCount, err := ParseFormatByte(header[0])
	if err != nil {
		return nil, err
	}

	if lenBytesCount == 0 {
		return nil, fmt.Errorf("%w: zero length bytes in format byte 0x%02x", ErrMalformed, header[0])
	}

	lenBytes, err := d.read(lenBytesCount)
	if err != nil {
		return nil, err
	}

	length := 0
	for _, b := range lenBytes {
		length = length<<8 | int(b)
	}

	if formatCode == ListFormatCode {
		return d.decodeList(length)
	}

	data, err := d.read(length)
	if err != nil {
		return nil, err
	}

	switch formatCode {
	case ASCIIFormatCode:
		return &ASCIIItem{value: string(data)}, nil
	case BinaryFormatCode:
		return &BinaryItem{values: util.CloneSlice(data)}, nil
	case BooleanFormatCode:
		return decodeBooleanItem(data), nil
	case Int8FormatCode, Int16FormatCode, Int32FormatCode, Int64FormatCode:
		return decodeIntItem(formatCode.ElementSize(), data)
	case Uint8FormatCode, Uint16FormatCode, Uint32FormatCode, Uint64FormatCode:
		return decodeUintItem(formatCode.ElementSize(), data)
	case Float32FormatCode, Float64FormatCode:
		return decodeFloatItem(formatCode.ElementSize(), data)
	default:
		return nil, fmt.Errorf("%w: format code %s", ErrUnsupportedFormat, formatCode)
	}
}

func (d *itemDecoder) decodeList(length int) (Item, error) {
	d.depth++
	if d.depth > MaxListDepth {
		return nil, fmt.Errorf("%w: list nesting depth exceeds %d", ErrMalformed, MaxListDepth)
	}

	// each child takes at least 2 bytes: format byte and one length byte
	if length*2 > d.remaining() {
		return nil, fmt.Errorf("%w: list claims %d items but only %d bytes remain",
			ErrMalformed, length, d.remaining())
	}

	values := make([]Item, length)
	for i := range length {
		item, err := d.decodeItem()
		if err != nil {
			return nil, err
		}
		values[i] = item
	}
	d.depth--

	return &ListItem{values: values}, nil
}

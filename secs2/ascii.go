package secs2

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
)

// ASCIIItem represents a string in a SECS-II message, format code A.
//
// The item keeps the raw bytes as they're sent on the wire. The default character set is US-ASCII;
// other character sets must be requested explicitly with NewASCIIItemWithEncoding and
// ToStringWithEncoding.
type ASCIIItem struct {
	baseItem
	value string // raw wire bytes
}

// NewASCIIItem creates a new ASCIIItem containing the given US-ASCII string.
//
// If the string contains a character outside of US-ASCII, an error wrapping ErrNonASCII is set on
// the item. If the string length exceeds MaxByteSize, an error wrapping ErrValueTooLarge is set.
func NewASCIIItem(value string) Item {
	item := &ASCIIItem{}

	for i := 0; i < len(value); i++ {
		if value[i] > 0x7F {
			item.setError(fmt.Errorf("%w: byte 0x%02X at offset %d", ErrNonASCII, value[i], i))
			return item
		}
	}

	if err := checkDataLength(len(value), 1); err != nil {
		item.setError(err)
		return item
	}

	item.value = value

	return item
}

// NewASCIIItemWithEncoding creates a new ASCIIItem by encoding value (UTF-8) with enc,
// e.g. simplifiedchinese.GBK or japanese.ShiftJIS.
//
// An encoding failure or an oversized result sets an error on the item.
func NewASCIIItemWithEncoding(value string, enc encoding.Encoding) Item {
	item := &ASCIIItem{}

	encoded, err := enc.NewEncoder().String(value)
	if err != nil {
		item.setError(fmt.Errorf("%w: %w", ErrInvalidValue, err))
		return item
	}

	if err := checkDataLength(len(encoded), 1); err != nil {
		item.setError(err)
		return item
	}

	item.value = encoded

	return item
}

// Type implements Item.Type().
func (item *ASCIIItem) Type() FormatCode { return ASCIIFormatCode }

// Get implements Item.Get().
func (item *ASCIIItem) Get(indices ...int) (Item, error) {
	return getSelf(item, indices)
}

// ToASCII returns the raw string stored within the item.
func (item *ASCIIItem) ToASCII() (string, error) {
	return item.value, nil
}

// ToStringWithEncoding decodes the raw string with enc and returns it as UTF-8.
func (item *ASCIIItem) ToStringWithEncoding(enc encoding.Encoding) (string, error) {
	decoded, err := enc.NewDecoder().String(item.value)
	if err != nil {
		return "", newItemErrorf("%w: %w", ErrInvalidValue, err)
	}

	return decoded, nil
}

// Size returns the byte length of the string.
func (item *ASCIIItem) Size() int {
	return len(item.value)
}

// Values returns the raw string.
func (item *ASCIIItem) Values() any {
	return item.value
}

// ToBytes implements Item.ToBytes().
func (item *ASCIIItem) ToBytes() ([]byte, error) {
	return encodeItem(item, len(item.value))
}

// AppendBytes implements Item.AppendBytes().
func (item *ASCIIItem) AppendBytes(dst []byte) ([]byte, error) {
	if item.itemErr != nil {
		return dst, item.itemErr
	}

	dst, err := appendHeader(dst, ASCIIFormatCode, len(item.value))
	if err != nil {
		return dst, err
	}

	return append(dst, item.value...), nil
}

// ToSML converts the ASCIIItem into its SML representation.
//
// Printable characters are enclosed in double quotes, other bytes are written in hexadecimal,
// e.g. `<A[7] "line" 0x0A "ok">`.
func (item *ASCIIItem) ToSML() string {
	if item.value == "" {
		return "<A[0]>"
	}

	var sb strings.Builder
	sb.Grow(len(item.value) + 12)

	sb.WriteString("<A[")
	sb.WriteString(strconv.Itoa(item.Size()))
	sb.WriteByte(']')

	inPrintableRun := false
	for i := 0; i < len(item.value); i++ {
		ch := item.value[i]
		isPrintable := ch >= 0x20 && ch < 0x7F

		if isPrintable && !inPrintableRun {
			sb.WriteString(` "`)
			inPrintableRun = true
		} else if !isPrintable && inPrintableRun {
			sb.WriteByte('"')
			inPrintableRun = false
		}

		switch {
		case !isPrintable:
			fmt.Fprintf(&sb, " 0x%02X", ch)
		case ch == '"' || ch == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(ch)
		default:
			sb.WriteByte(ch)
		}
	}

	if inPrintableRun {
		sb.WriteByte('"')
	}
	sb.WriteByte('>')

	return sb.String()
}

// Clone implements Item.Clone().
func (item *ASCIIItem) Clone() Item {
	return &ASCIIItem{baseItem: item.baseItem, value: item.value}
}

func (item *ASCIIItem) IsASCII() bool { return true }

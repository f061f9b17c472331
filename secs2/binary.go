package secs2

import (
	"fmt"
	"strings"

	"github.com/arloliu/go-hsms/internal/util"
)

// BinaryItem represents binary data in a SECS-II message, format code B.
type BinaryItem struct {
	baseItem
	values []byte
}

// NewBinaryItem creates a new BinaryItem.
//
// values can be any combination of byte, []byte, and non-negative int values not greater than 255.
// Out-of-range ints set an error wrapping ErrValueTooLarge on the item.
func NewBinaryItem(values ...any) Item {
	item := &BinaryItem{values: []byte{}}

	itemValues := make([]byte, 0, len(values))
	for _, value := range values {
		switch value := value.(type) {
		case byte:
			itemValues = append(itemValues, value)
		case []byte:
			itemValues = append(itemValues, value...)
		case int:
			if value < 0 || value > 0xFF {
				item.setError(fmt.Errorf("%w: value %d overflows B", ErrValueTooLarge, value))
				return item
			}
			itemValues = append(itemValues, byte(value))
		case []int:
			for _, v := range value {
				if v < 0 || v > 0xFF {
					item.setError(fmt.Errorf("%w: value %d overflows B", ErrValueTooLarge, v))
					return item
				}
				itemValues = append(itemValues, byte(v))
			}
		default:
			item.setError(fmt.Errorf("%w: %T for BinaryItem", ErrInvalidValue, value))
			return item
		}
	}

	if err := checkDataLength(len(itemValues), 1); err != nil {
		item.setError(err)
		return item
	}

	item.values = itemValues

	return item
}

// Type implements Item.Type().
func (item *BinaryItem) Type() FormatCode { return BinaryFormatCode }

// Get implements Item.Get().
func (item *BinaryItem) Get(indices ...int) (Item, error) {
	return getSelf(item, indices)
}

// ToBinary returns the binary data stored within the item.
// The returned slice is a copy.
func (item *BinaryItem) ToBinary() ([]byte, error) {
	return util.CloneSlice(item.values), nil
}

// Size implements Item.Size().
func (item *BinaryItem) Size() int {
	return len(item.values)
}

// Values returns the values as []byte.
func (item *BinaryItem) Values() any {
	return util.CloneSlice(item.values)
}

// ToBytes implements Item.ToBytes().
func (item *BinaryItem) ToBytes() ([]byte, error) {
	return encodeItem(item, len(item.values))
}

// AppendBytes implements Item.AppendBytes().
func (item *BinaryItem) AppendBytes(dst []byte) ([]byte, error) {
	if item.itemErr != nil {
		return dst, item.itemErr
	}

	dst, err := appendHeader(dst, BinaryFormatCode, len(item.values))
	if err != nil {
		return dst, err
	}

	return append(dst, item.values...), nil
}

// ToSML converts the BinaryItem into its SML representation, e.g. `<B[2] 0x01 0xFF>`.
func (item *BinaryItem) ToSML() string {
	if item.Size() == 0 {
		return "<B[0]>"
	}

	var sb strings.Builder
	sb.Grow(len(item.values)*5 + 10)
	sb.WriteString(fmt.Sprintf("<B[%d]", item.Size()))

	for _, v := range item.values {
		sb.WriteString(fmt.Sprintf(" 0x%02X", v))
	}

	sb.WriteByte('>')

	return sb.String()
}

// Clone implements Item.Clone().
func (item *BinaryItem) Clone() Item {
	return &BinaryItem{baseItem: item.baseItem, values: util.CloneSlice(item.values)}
}

func (item *BinaryItem) IsBinary() bool { return true }

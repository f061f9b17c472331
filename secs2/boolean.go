package secs2

import (
	"fmt"
	"strings"

	"github.com/arloliu/go-hsms/internal/util"
)

// BooleanItem represents a list of booleans in a SECS-II message, format code BOOLEAN.
//
// On the wire false is 0x00 and true is 0x01; any non-zero byte decodes as true.
type BooleanItem struct {
	baseItem
	values []bool
}

// NewBooleanItem creates a new BooleanItem from any combination of bool and []bool values.
func NewBooleanItem(values ...any) Item {
	item := &BooleanItem{values: []bool{}}

	itemValues := make([]bool, 0, len(values))
	for _, value := range values {
		switch value := value.(type) {
		case bool:
			itemValues = append(itemValues, value)
		case []bool:
			itemValues = append(itemValues, value...)
		default:
			item.setError(fmt.Errorf("%w: %T for BooleanItem", ErrInvalidValue, value))
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
func (item *BooleanItem) Type() FormatCode { return BooleanFormatCode }

// Get implements Item.Get().
func (item *BooleanItem) Get(indices ...int) (Item, error) {
	return getSelf(item, indices)
}

// ToBoolean returns the boolean values stored within the item.
// The returned slice is a copy.
func (item *BooleanItem) ToBoolean() ([]bool, error) {
	return util.CloneSlice(item.values), nil
}

// Size implements Item.Size().
func (item *BooleanItem) Size() int {
	return len(item.values)
}

// Values returns the values as []bool.
func (item *BooleanItem) Values() any {
	return util.CloneSlice(item.values)
}

// ToBytes implements Item.ToBytes().
func (item *BooleanItem) ToBytes() ([]byte, error) {
	return encodeItem(item, len(item.values))
}

// AppendBytes implements Item.AppendBytes().
func (item *BooleanItem) AppendBytes(dst []byte) ([]byte, error) {
	if item.itemErr != nil {
		return dst, item.itemErr
	}

	dst, err := appendHeader(dst, BooleanFormatCode, len(item.values))
	if err != nil {
		return dst, err
	}

	for _, v := range item.values {
		if v {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	}

	return dst, nil
}

// ToSML converts the BooleanItem into its SML representation, e.g. `<BOOLEAN[2] True False>`.
func (item *BooleanItem) ToSML() string {
	if item.Size() == 0 {
		return "<BOOLEAN[0]>"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<BOOLEAN[%d]", item.Size()))
	for _, v := range item.values {
		if v {
			sb.WriteString(" True")
		} else {
			sb.WriteString(" False")
		}
	}
	sb.WriteByte('>')

	return sb.String()
}

// Clone implements Item.Clone().
func (item *BooleanItem) Clone() Item {
	return &BooleanItem{baseItem: item.baseItem, values: util.CloneSlice(item.values)}
}

func (item *BooleanItem) IsBoolean() bool { return true }

func decodeBooleanItem(data []byte) Item {
	values := make([]bool, len(data))
	for i, b := range data {
		values[i] = b != 0
	}

	return &BooleanItem{values: values}
}

package secs2

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/go-hsms/internal/util"
)

// UintItem represents a list of unsigned integers in a SECS-II message, with format code U1, U2, U4 or U8.
//
// U8 values are carried as uint64, so the whole unsigned 64-bit range is representable.
type UintItem struct {
	baseItem
	byteSize int      // 1, 2, 4 or 8
	values   []uint64 // values within the range of byteSize
}

// NewUintItem creates a new UintItem representing unsigned integer data in a SECS-II message.
//
// byteSize is the size of each integer value in bytes (1, 2, 4, or 8).
//
// values can be any combination of:
//   - unsigned integers (uint, uint8, uint16, uint32, uint64) and slices of them.
//   - non-negative signed integers (int, int8, int16, int32, int64) and slices of them.
//   - strings representing a non-negative integer value, and slices of them.
//
// If byteSize is invalid, a value has an unsupported type, or a value is out of the range of byteSize,
// an error is set on the item. An out-of-range value results in an error wrapping ErrValueTooLarge.
func NewUintItem(byteSize int, values ...any) Item {
	item := &UintItem{byteSize: byteSize, values: []uint64{}}

	if !isIntByteSize(byteSize) {
		item.setError(fmt.Errorf("%w: %d", ErrInvalidByteSize, byteSize))
		return item
	}

	itemValues, err := combineUintValues(byteSize, values...)
	if err != nil {
		item.setError(err)
		return item
	}

	if err := checkDataLength(len(itemValues), byteSize); err != nil {
		item.setError(err)
		return item
	}

	item.values = itemValues

	return item
}

// Type implements Item.Type().
func (item *UintItem) Type() FormatCode {
	switch item.byteSize {
	case 1:
		return Uint8FormatCode
	case 2:
		return Uint16FormatCode
	case 4:
		return Uint32FormatCode
	default:
		return Uint64FormatCode
	}
}

// Get implements Item.Get().
func (item *UintItem) Get(indices ...int) (Item, error) {
	return getSelf(item, indices)
}

// ToUint returns the unsigned integer values stored within the item.
// The returned slice is a copy.
func (item *UintItem) ToUint() ([]uint64, error) {
	return util.CloneSlice(item.values), nil
}

// Size implements Item.Size().
func (item *UintItem) Size() int {
	return len(item.values)
}

// Values returns the values as []uint64.
func (item *UintItem) Values() any {
	return util.CloneSlice(item.values)
}

// ToBytes implements Item.ToBytes().
func (item *UintItem) ToBytes() ([]byte, error) {
	return encodeItem(item, len(item.values)*item.byteSize)
}

// AppendBytes implements Item.AppendBytes().
func (item *UintItem) AppendBytes(dst []byte) ([]byte, error) {
	if item.itemErr != nil {
		return dst, item.itemErr
	}

	dst, err := appendHeader(dst, item.Type(), len(item.values)*item.byteSize)
	if err != nil {
		return dst, err
	}

	switch item.byteSize {
	case 1:
		for _, value := range item.values {
			dst = append(dst, byte(value))
		}
	case 2:
		for _, value := range item.values {
			dst = binary.BigEndian.AppendUint16(dst, uint16(value)) //nolint:gosec
		}
	case 4:
		for _, value := range item.values {
			dst = binary.BigEndian.AppendUint32(dst, uint32(value)) //nolint:gosec
		}
	case 8:
		for _, value := range item.values {
			dst = binary.BigEndian.AppendUint64(dst, value)
		}
	}

	return dst, nil
}

// ToSML converts the UintItem into its SML representation, e.g. `<U4[2] 0 32000>`.
func (item *UintItem) ToSML() string {
	if item.Size() == 0 {
		return fmt.Sprintf("<U%d[0]>", item.byteSize)
	}

	var sb strings.Builder
	sb.Grow(len(item.values)*10 + 10)
	sb.WriteString(fmt.Sprintf("<U%d[%d] ", item.byteSize, item.Size()))

	var uintBuf [20]byte
	for i, v := range item.values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.Write(strconv.AppendUint(uintBuf[:0], v, 10))
	}

	sb.WriteByte('>')

	return sb.String()
}

// Clone implements Item.Clone().
func (item *UintItem) Clone() Item {
	return &UintItem{baseItem: item.baseItem, byteSize: item.byteSize, values: util.CloneSlice(item.values)}
}

func (item *UintItem) IsUint8() bool  { return item.byteSize == 1 }
func (item *UintItem) IsUint16() bool { return item.byteSize == 2 }
func (item *UintItem) IsUint32() bool { return item.byteSize == 4 }
func (item *UintItem) IsUint64() bool { return item.byteSize == 8 }

// decodeUintItem creates an UintItem from a big-endian payload.
func decodeUintItem(byteSize int, data []byte) (Item, error) {
	if len(data)%byteSize != 0 {
		return nil, fmt.Errorf("%w: U%d payload length %d is not a multiple of %d", ErrMalformed, byteSize, len(data), byteSize)
	}

	values := make([]uint64, len(data)/byteSize)
	for i := range values {
		chunk := data[i*byteSize : (i+1)*byteSize]
		switch byteSize {
		case 1:
			values[i] = uint64(chunk[0])
		case 2:
			values[i] = uint64(binary.BigEndian.Uint16(chunk))
		case 4:
			values[i] = uint64(binary.BigEndian.Uint32(chunk))
		case 8:
			values[i] = binary.BigEndian.Uint64(chunk)
		}
	}

	return &UintItem{byteSize: byteSize, values: values}, nil
}

func isIntByteSize(byteSize int) bool {
	return byteSize == 1 || byteSize == 2 || byteSize == 4 || byteSize == 8
}

func errNegativeUint(v int64) error {
	return fmt.Errorf("%w: negative value %d not allowed for UintItem", ErrValueTooLarge, v)
}

func appendNonNegative[T int | int8 | int16 | int32 | int64](target []uint64, values ...T) ([]uint64, error) {
	for _, v := range values {
		if v < 0 {
			return nil, errNegativeUint(int64(v))
		}
		target = append(target, uint64(v))
	}

	return target, nil
}

func appendUnsigned[T uint | uint8 | uint16 | uint32 | uint64](target []uint64, values ...T) []uint64 {
	for _, v := range values {
		target = append(target, uint64(v))
	}

	return target
}

func combineUintValues(byteSize int, values ...any) ([]uint64, error) { //nolint:gocyclo,cyclop
	itemValues := make([]uint64, 0, len(values))

	var err error
	for _, value := range values {
		switch value := value.(type) {
		case uint:
			itemValues = appendUnsigned(itemValues, value)
		case []uint:
			itemValues = appendUnsigned(itemValues, value...)
		case uint8:
			itemValues = appendUnsigned(itemValues, value)
		case []uint8:
			itemValues = appendUnsigned(itemValues, value...)
		case uint16:
			itemValues = appendUnsigned(itemValues, value)
		case []uint16:
			itemValues = appendUnsigned(itemValues, value...)
		case uint32:
			itemValues = appendUnsigned(itemValues, value)
		case []uint32:
			itemValues = appendUnsigned(itemValues, value...)
		case uint64:
			itemValues = appendUnsigned(itemValues, value)
		case []uint64:
			itemValues = appendUnsigned(itemValues, value...)

		case int:
			itemValues, err = appendNonNegative(itemValues, value)
		case []int:
			itemValues, err = appendNonNegative(itemValues, value...)
		case int8:
			itemValues, err = appendNonNegative(itemValues, value)
		case []int8:
			itemValues, err = appendNonNegative(itemValues, value...)
		case int16:
			itemValues, err = appendNonNegative(itemValues, value)
		case []int16:
			itemValues, err = appendNonNegative(itemValues, value...)
		case int32:
			itemValues, err = appendNonNegative(itemValues, value)
		case []int32:
			itemValues, err = appendNonNegative(itemValues, value...)
		case int64:
			itemValues, err = appendNonNegative(itemValues, value)
		case []int64:
			itemValues, err = appendNonNegative(itemValues, value...)

		case string:
			itemValues, err = appendUintStrings(itemValues, value)
		case []string:
			itemValues, err = appendUintStrings(itemValues, value...)

		default:
			return nil, fmt.Errorf("%w: %T for UintItem", ErrInvalidValue, value)
		}

		if err != nil {
			return nil, err
		}
	}

	var maxVal uint64 = 1<<(byteSize*8) - 1

	for _, v := range itemValues {
		if v > maxVal {
			return nil, fmt.Errorf("%w: value %d overflows U%d", ErrValueTooLarge, v, byteSize)
		}
	}

	return itemValues, nil
}

func appendUintStrings(target []uint64, values ...string) ([]uint64, error) {
	for _, v := range values {
		uintVal, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		target = append(target, uintVal)
	}

	return target, nil
}

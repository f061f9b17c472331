package secs2

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/go-hsms/internal/util"
)

// IntItem represents a list of signed integers in a SECS-II message, with format code I1, I2, I4 or I8.
type IntItem struct {
	baseItem
	byteSize int     // 1, 2, 4 or 8
	values   []int64 // values within the range of byteSize
}

// NewIntItem creates a new IntItem representing signed integer data in a SECS-II message.
//
// byteSize is the size of each integer value in bytes (1, 2, 4, or 8).
//
// values can be any combination of:
//   - signed integers (int, int8, int16, int32, int64) and slices of them.
//   - unsigned integers (uint, uint8, uint16, uint32, uint64) and slices of them.
//   - strings representing an integer value, and slices of them.
//
// If byteSize is invalid, a value has an unsupported type, or a value is out of the range of byteSize,
// an error is set on the item. An out-of-range value results in an error wrapping ErrValueTooLarge.
func NewIntItem(byteSize int, values ...any) Item {
	item := &IntItem{byteSize: byteSize, values: []int64{}}

	if !isIntByteSize(byteSize) {
		item.setError(fmt.Errorf("%w: %d", ErrInvalidByteSize, byteSize))
		return item
	}

	itemValues, err := combineIntValues(byteSize, values...)
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
func (item *IntItem) Type() FormatCode {
	switch item.byteSize {
	case 1:
		return Int8FormatCode
	case 2:
		return Int16FormatCode
	case 4:
		return Int32FormatCode
	default:
		return Int64FormatCode
	}
}

// Get implements Item.Get().
func (item *IntItem) Get(indices ...int) (Item, error) {
	return getSelf(item, indices)
}

// ToInt returns the signed integer values stored within the item.
// The returned slice is a copy.
func (item *IntItem) ToInt() ([]int64, error) {
	return util.CloneSlice(item.values), nil
}

// Size implements Item.Size().
func (item *IntItem) Size() int {
	return len(item.values)
}

// Values returns the values as []int64.
func (item *IntItem) Values() any {
	return util.CloneSlice(item.values)
}

// ToBytes implements Item.ToBytes().
func (item *IntItem) ToBytes() ([]byte, error) {
	return encodeItem(item, len(item.values)*item.byteSize)
}

// AppendBytes implements Item.AppendBytes().
func (item *IntItem) AppendBytes(dst []byte) ([]byte, error) {
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
			dst = binary.BigEndian.AppendUint64(dst, uint64(value)) //nolint:gosec
		}
	}

	return dst, nil
}

// ToSML converts the IntItem into its SML representation, e.g. `<I2[3] -1 0 1>`.
func (item *IntItem) ToSML() string {
	if item.Size() == 0 {
		return fmt.Sprintf("<I%d[0]>", item.byteSize)
	}

	var sb strings.Builder
	sb.Grow(len(item.values)*10 + 10)
	sb.WriteString(fmt.Sprintf("<I%d[%d] ", item.byteSize, item.Size()))

	var intBuf [20]byte
	for i, v := range item.values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.Write(strconv.AppendInt(intBuf[:0], v, 10))
	}

	sb.WriteByte('>')

	return sb.String()
}

// Clone implements Item.Clone().
func (item *IntItem) Clone() Item {
	return &IntItem{baseItem: item.baseItem, byteSize: item.byteSize, values: util.CloneSlice(item.values)}
}

func (item *IntItem) IsInt8() bool  { return item.byteSize == 1 }
func (item *IntItem) IsInt16() bool { return item.byteSize == 2 }
func (item *IntItem) IsInt32() bool { return item.byteSize == 4 }
func (item *IntItem) IsInt64() bool { return item.byteSize == 8 }

// decodeIntItem creates an IntItem from a big-endian payload.
func decodeIntItem(byteSize int, data []byte) (Item, error) {
	if len(data)%byteSize != 0 {
		return nil, fmt.Errorf("%w: I%d payload length %d is not a multiple of %d", ErrMalformed, byteSize, len(data), byteSize)
	}

	values := make([]int64, len(data)/byteSize)
	for i := range values {
		chunk := data[i*byteSize : (i+1)*byteSize]
		switch byteSize {
		case 1:
			values[i] = int64(int8(chunk[0]))
		case 2:
			values[i] = int64(int16(binary.BigEndian.Uint16(chunk))) //nolint:gosec
		case 4:
			values[i] = int64(int32(binary.BigEndian.Uint32(chunk))) //nolint:gosec
		case 8:
			values[i] = int64(binary.BigEndian.Uint64(chunk)) //nolint:gosec
		}
	}

	return &IntItem{byteSize: byteSize, values: values}, nil
}

func combineIntValues(byteSize int, values ...any) ([]int64, error) { //nolint:gocyclo,cyclop
	itemValues := make([]int64, 0, len(values))

	for _, value := range values {
		switch value := value.(type) {
		case int:
			itemValues = append(itemValues, int64(value))
		case []int:
			itemValues = util.AppendInts(itemValues, value)
		case int8:
			itemValues = append(itemValues, int64(value))
		case []int8:
			itemValues = util.AppendInts(itemValues, value)
		case int16:
			itemValues = append(itemValues, int64(value))
		case []int16:
			itemValues = util.AppendInts(itemValues, value)
		case int32:
			itemValues = append(itemValues, int64(value))
		case []int32:
			itemValues = util.AppendInts(itemValues, value)
		case int64:
			itemValues = append(itemValues, value)
		case []int64:
			itemValues = append(itemValues, value...)

		case uint:
			if uint64(value) > math.MaxInt64 {
				return nil, fmt.Errorf("%w: value %d overflows I%d", ErrValueTooLarge, value, byteSize)
			}
			itemValues = append(itemValues, int64(value)) //nolint:gosec
		case []uint:
			for _, v := range value {
				if uint64(v) > math.MaxInt64 {
					return nil, fmt.Errorf("%w: value %d overflows I%d", ErrValueTooLarge, v, byteSize)
				}
				itemValues = append(itemValues, int64(v)) //nolint:gosec
			}
		case uint8:
			itemValues = append(itemValues, int64(value))
		case []uint8:
			itemValues = util.AppendInts(itemValues, value)
		case uint16:
			itemValues = append(itemValues, int64(value))
		case []uint16:
			itemValues = util.AppendInts(itemValues, value)
		case uint32:
			itemValues = append(itemValues, int64(value))
		case []uint32:
			itemValues = util.AppendInts(itemValues, value)
		case uint64:
			if value > math.MaxInt64 {
				return nil, fmt.Errorf("%w: value %d overflows I%d", ErrValueTooLarge, value, byteSize)
			}
			itemValues = append(itemValues, int64(value)) //nolint:gosec
		case []uint64:
			for _, v := range value {
				if v > math.MaxInt64 {
					return nil, fmt.Errorf("%w: value %d overflows I%d", ErrValueTooLarge, v, byteSize)
				}
				itemValues = append(itemValues, int64(v)) //nolint:gosec
			}

		case string:
			intVal, err := strconv.ParseInt(value, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
			}
			itemValues = append(itemValues, intVal)
		case []string:
			for _, v := range value {
				intVal, err := strconv.ParseInt(v, 0, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
				}
				itemValues = append(itemValues, intVal)
			}

		default:
			return nil, fmt.Errorf("%w: %T for IntItem", ErrInvalidValue, value)
		}
	}

	bits := byteSize * 8
	var minVal int64 = -1 << (bits - 1)
	var maxVal int64 = 1<<(bits-1) - 1

	for _, v := range itemValues {
		if v < minVal || v > maxVal {
			return nil, fmt.Errorf("%w: value %d overflows I%d", ErrValueTooLarge, v, byteSize)
		}
	}

	return itemValues, nil
}

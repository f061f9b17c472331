package secs2

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/go-hsms/internal/util"
)

// FloatItem represents a list of IEEE 754 floating-point numbers in a SECS-II message,
// with format code F4 or F8.
type FloatItem struct {
	baseItem
	byteSize int // 4 or 8
	values   []float64
}

// NewFloatItem creates a new FloatItem representing float data in a SECS-II message.
//
// byteSize is the size of each float value in bytes (4 or 8).
//
// values can be any combination of float32, float64, integers, strings representing a float value,
// and slices of them.
//
// If byteSize is invalid, a value has an unsupported type, or a value overflows a F4 item,
// an error is set on the item.
func NewFloatItem(byteSize int, values ...any) Item {
	item := &FloatItem{byteSize: byteSize, values: []float64{}}

	if byteSize != 4 && byteSize != 8 {
		item.setError(fmt.Errorf("%w: %d", ErrInvalidByteSize, byteSize))
		return item
	}

	itemValues, err := combineFloatValues(byteSize, values...)
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
func (item *FloatItem) Type() FormatCode {
	if item.byteSize == 4 {
		return Float32FormatCode
	}

	return Float64FormatCode
}

// Get implements Item.Get().
func (item *FloatItem) Get(indices ...int) (Item, error) {
	return getSelf(item, indices)
}

// ToFloat returns the float values stored within the item.
// The returned slice is a copy.
func (item *FloatItem) ToFloat() ([]float64, error) {
	return util.CloneSlice(item.values), nil
}

// Size implements Item.Size().
func (item *FloatItem) Size() int {
	return len(item.values)
}

// Values returns the values as []float64.
func (item *FloatItem) Values() any {
	return util.CloneSlice(item.values)
}

// ToBytes implements Item.ToBytes().
func (item *FloatItem) ToBytes() ([]byte, error) {
	return encodeItem(item, len(item.values)*item.byteSize)
}

// AppendBytes implements Item.AppendBytes().
func (item *FloatItem) AppendBytes(dst []byte) ([]byte, error) {
	if item.itemErr != nil {
		return dst, item.itemErr
	}

	dst, err := appendHeader(dst, item.Type(), len(item.values)*item.byteSize)
	if err != nil {
		return dst, err
	}

	if item.byteSize == 4 {
		for _, value := range item.values {
			dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(value)))
		}
	} else {
		for _, value := range item.values {
			dst = binary.BigEndian.AppendUint64(dst, math.Float64bits(value))
		}
	}

	return dst, nil
}

// ToSML converts the FloatItem into its SML representation, e.g. `<F4[2] -1 3.14>`.
func (item *FloatItem) ToSML() string {
	if item.Size() == 0 {
		return fmt.Sprintf("<F%d[0]>", item.byteSize)
	}

	var sb strings.Builder
	sb.Grow(len(item.values)*12 + 10)
	sb.WriteString(fmt.Sprintf("<F%d[%d] ", item.byteSize, item.Size()))

	var buf [32]byte
	for i, v := range item.values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.Write(strconv.AppendFloat(buf[:0], v, 'g', -1, item.byteSize*8))
	}

	sb.WriteByte('>')

	return sb.String()
}

// Clone implements Item.Clone().
func (item *FloatItem) Clone() Item {
	return &FloatItem{baseItem: item.baseItem, byteSize: item.byteSize, values: util.CloneSlice(item.values)}
}

func (item *FloatItem) IsFloat32() bool { return item.byteSize == 4 }
func (item *FloatItem) IsFloat64() bool { return item.byteSize == 8 }

// decodeFloatItem creates a FloatItem from a big-endian payload.
func decodeFloatItem(byteSize int, data []byte) (Item, error) {
	if len(data)%byteSize != 0 {
		return nil, fmt.Errorf("%w: F%d payload length %d is not a multiple of %d", ErrMalformed, byteSize, len(data), byteSize)
	}

	values := make([]float64, len(data)/byteSize)
	for i := range values {
		chunk := data[i*byteSize : (i+1)*byteSize]
		if byteSize == 4 {
			values[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(chunk)))
		} else {
			values[i] = math.Float64frombits(binary.BigEndian.Uint64(chunk))
		}
	}

	return &FloatItem{byteSize: byteSize, values: values}, nil
}

func combineFloatValues(byteSize int, values ...any) ([]float64, error) { //nolint:gocyclo,cyclop
	itemValues := make([]float64, 0, len(values))

	for _, value := range values {
		switch value := value.(type) {
		case float32:
			itemValues = append(itemValues, float64(value))
		case []float32:
			itemValues = util.AppendFloats(itemValues, value)
		case float64:
			itemValues = append(itemValues, value)
		case []float64:
			itemValues = append(itemValues, value...)

		case int:
			itemValues = append(itemValues, float64(value))
		case []int:
			itemValues = util.AppendFloats(itemValues, value)
		case int8:
			itemValues = append(itemValues, float64(value))
		case int16:
			itemValues = append(itemValues, float64(value))
		case int32:
			itemValues = append(itemValues, float64(value))
		case int64:
			itemValues = append(itemValues, float64(value))
		case []int64:
			itemValues = util.AppendFloats(itemValues, value)
		case uint:
			itemValues = append(itemValues, float64(value))
		case uint8:
			itemValues = append(itemValues, float64(value))
		case uint16:
			itemValues = append(itemValues, float64(value))
		case uint32:
			itemValues = append(itemValues, float64(value))
		case uint64:
			itemValues = append(itemValues, float64(value))
		case []uint64:
			itemValues = util.AppendFloats(itemValues, value)

		case string:
			floatVal, err := strconv.ParseFloat(value, byteSize*8)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
			}
			itemValues = append(itemValues, floatVal)
		case []string:
			for _, v := range value {
				floatVal, err := strconv.ParseFloat(v, byteSize*8)
				if err != nil {
					return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
				}
				itemValues = append(itemValues, floatVal)
			}

		default:
			return nil, fmt.Errorf("%w: %T for FloatItem", ErrInvalidValue, value)
		}
	}

	if byteSize == 4 {
		for _, v := range itemValues {
			if !math.IsInf(v, 0) && !math.IsNaN(v) && math.Abs(v) > math.MaxFloat32 {
				return nil, fmt.Errorf("%w: value %g overflows F4", ErrValueTooLarge, v)
			}
		}
	}

	return itemValues, nil
}

package secs2

// Item represents an immutable data item in a SECS-II message.
//
// An item is either a list of child items or a flat array of values of a single format.
// A list exclusively owns its children, so an item tree never shares nodes.
//
// There's a limit on the length field of an Item, as defined by the SEMI standard:
//
//	list: number of child items <= 16,777,215 (3 bytes)
//	others: n * b <= 16,777,215 (3 bytes)
//	- n: number of data values within the Item
//	- b: byte size to represent each individual data value (varies by Item type)
type Item interface {
	// Type returns the SECS-II format code of the item.
	Type() FormatCode

	// Size returns the number of child items of a list, or the number of values of other items.
	// For an ASCII item it's the number of bytes of the string.
	Size() int

	// Get retrieves a nested Item at the specified indices.
	// Without indices it returns the item itself.
	// An error wrapping ErrTypeMismatch is returned if indices are given to an item that isn't a list.
	Get(indices ...int) (Item, error)

	// ToList retrieves the child items. Only available for ListItem.
	ToList() ([]Item, error)

	// ToBinary retrieves binary data. Only available for BinaryItem.
	ToBinary() ([]byte, error)

	// ToBoolean retrieves boolean values. Only available for BooleanItem.
	ToBoolean() ([]bool, error)

	// ToASCII retrieves the string. Only available for ASCIIItem.
	ToASCII() (string, error)

	// ToInt retrieves signed integer values. Only available for IntItem.
	ToInt() ([]int64, error)

	// ToUint retrieves unsigned integer values. Only available for UintItem.
	ToUint() ([]uint64, error)

	// ToFloat retrieves float values. Only available for FloatItem.
	ToFloat() ([]float64, error)

	// Values returns the values held by the item, e.g. []uint64 for an UintItem.
	Values() any

	// ToBytes serializes the item into its SECS-II byte representation.
	//
	// It returns the construction error of the item if one exists, or an error wrapping
	// ErrValueTooLarge if the length doesn't fit the 3-byte length field.
	ToBytes() ([]byte, error)

	// AppendBytes appends the SECS-II byte representation of the item to dst.
	AppendBytes(dst []byte) ([]byte, error)

	// ToSML converts the item into its SML (SECS Message Language) representation.
	ToSML() string

	// Clone creates a deep copy of the item.
	Clone() Item

	// Error returns the error that occurred during the creation of the item, nil if none.
	Error() error

	IsList() bool
	IsBinary() bool
	IsBoolean() bool
	IsASCII() bool
	IsInt8() bool
	IsInt16() bool
	IsInt32() bool
	IsInt64() bool
	IsUint8() bool
	IsUint16() bool
	IsUint32() bool
	IsUint64() bool
	IsFloat32() bool
	IsFloat64() bool
}

// baseItem provides the accessors every concrete item doesn't support, and the storage of
// the construction error.
//
// Accessor failures are returned to the caller only; they never change the item.
type baseItem struct {
	itemErr error
}

func (item *baseItem) ToList() ([]Item, error) {
	return nil, newItemErrorf("%w: item is not a list", ErrTypeMismatch)
}

func (item *baseItem) ToBinary() ([]byte, error) {
	return nil, newItemErrorf("%w: item is not a binary", ErrTypeMismatch)
}

func (item *baseItem) ToBoolean() ([]bool, error) {
	return nil, newItemErrorf("%w: item is not a boolean", ErrTypeMismatch)
}

func (item *baseItem) ToASCII() (string, error) {
	return "", newItemErrorf("%w: item is not an ASCII", ErrTypeMismatch)
}

func (item *baseItem) ToInt() ([]int64, error) {
	return nil, newItemErrorf("%w: item is not a signed integer", ErrTypeMismatch)
}

func (item *baseItem) ToUint() ([]uint64, error) {
	return nil, newItemErrorf("%w: item is not an unsigned integer", ErrTypeMismatch)
}

func (item *baseItem) ToFloat() ([]float64, error) {
	return nil, newItemErrorf("%w: item is not a float", ErrTypeMismatch)
}

func (item *baseItem) Error() error {
	return item.itemErr
}

func (item *baseItem) IsList() bool    { return false }
func (item *baseItem) IsBinary() bool  { return false }
func (item *baseItem) IsBoolean() bool { return false }
func (item *baseItem) IsASCII() bool   { return false }
func (item *baseItem) IsInt8() bool    { return false }
func (item *baseItem) IsInt16() bool   { return false }
func (item *baseItem) IsInt32() bool   { return false }
func (item *baseItem) IsInt64() bool   { return false }
func (item *baseItem) IsUint8() bool   { return false }
func (item *baseItem) IsUint16() bool  { return false }
func (item *baseItem) IsUint32() bool  { return false }
func (item *baseItem) IsUint64() bool  { return false }
func (item *baseItem) IsFloat32() bool { return false }
func (item *baseItem) IsFloat64() bool { return false }

func (item *baseItem) setError(err error) {
	if item.itemErr == nil {
		item.itemErr = newItemError(err)
	}
}

// getSelf implements Item.Get for items that aren't lists.
func getSelf(item Item, indices []int) (Item, error) {
	if len(indices) != 0 {
		return nil, newItemErrorf("%w: item %s is not a list, indices is %v", ErrTypeMismatch, item.Type(), indices)
	}

	return item, nil
}

// checkDataLength returns an error if n values of elemSize bytes don't fit the length field.
func checkDataLength(n int, elemSize int) error {
	if n*elemSize > MaxByteSize {
		return newItemErrorf("%w: item size %d exceeds %d bytes", ErrValueTooLarge, n*elemSize, MaxByteSize)
	}

	return nil
}

// encodeItem serializes item into a freshly allocated slice.
func encodeItem(item Item, sizeHint int) ([]byte, error) {
	return item.AppendBytes(make([]byte, 0, 4+sizeHint))
}

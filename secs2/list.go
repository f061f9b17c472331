package secs2

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/go-hsms/internal/util"
)

// ListItem represents an ordered list of items in a SECS-II message, format code L.
//
// The size of a ListItem is the number of items it contains, counted non-recursively,
// and it's also the value of the length field on the wire.
type ListItem struct {
	baseItem
	values []Item
}

// NewListItem creates a new ListItem containing the given items in order. Nil items are skipped.
//
// The list keeps its own copy of the slice, so later changes to the caller's slice don't affect it.
func NewListItem(values ...Item) Item {
	item := &ListItem{values: make([]Item, 0, len(values))}

	if len(values) > MaxByteSize {
		item.setError(fmt.Errorf("%w: list size %d exceeds %d", ErrValueTooLarge, len(values), MaxByteSize))
		return item
	}

	for _, value := range values {
		if value == nil {
			continue
		}
		item.values = append(item.values, value)
	}

	return item
}

// Type implements Item.Type().
func (item *ListItem) Type() FormatCode { return ListFormatCode }

// Get retrieves a nested item at the specified indices, e.g. Get(1, 0) returns the first child
// of the second child. Without indices it returns the list itself.
func (item *ListItem) Get(indices ...int) (Item, error) {
	if len(indices) == 0 {
		return item, nil
	}

	idx := indices[0]
	if idx < 0 || idx >= len(item.values) {
		return nil, newItemErrorf("index out of bounds, index: %d, size: %d", idx, len(item.values))
	}

	return item.values[idx].Get(indices[1:]...)
}

// ToList returns a copy of the child slice. The children themselves are shared.
func (item *ListItem) ToList() ([]Item, error) {
	return util.CloneSlice(item.values), nil
}

// Size implements Item.Size().
func (item *ListItem) Size() int {
	return len(item.values)
}

// Values returns the child items as []Item.
func (item *ListItem) Values() any {
	return util.CloneSlice(item.values)
}

// ToBytes implements Item.ToBytes().
func (item *ListItem) ToBytes() ([]byte, error) {
	return encodeItem(item, len(item.values)*8)
}

// AppendBytes implements Item.AppendBytes().
//
// The length field of a list holds the number of child items, followed by the encoded children.
func (item *ListItem) AppendBytes(dst []byte) ([]byte, error) {
	if item.itemErr != nil {
		return dst, item.itemErr
	}

	dst, err := appendHeader(dst, ListFormatCode, len(item.values))
	if err != nil {
		return dst, err
	}

	for _, value := range item.values {
		dst, err = value.AppendBytes(dst)
		if err != nil {
			return dst, err
		}
	}

	return dst, nil
}

// ToSML converts the ListItem into its SML representation, nested items are indented by 2 spaces.
func (item *ListItem) ToSML() string {
	return item.formatSML(0)
}

// Clone creates a deep copy of the list and its children.
func (item *ListItem) Clone() Item {
	values := make([]Item, len(item.values))
	for i, v := range item.values {
		values[i] = v.Clone()
	}

	return &ListItem{baseItem: item.baseItem, values: values}
}

// Error returns the error of the list itself joined with the errors of its children.
func (item *ListItem) Error() error {
	errs := item.itemErr
	for _, v := range item.values {
		if err := v.Error(); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return errs
}

func (item *ListItem) IsList() bool { return true }

// formatSML returns the indented string representation of this list node.
// Each indent level adds 2 spaces as prefix to each line.
func (item *ListItem) formatSML(level int) string {
	indentStr := strings.Repeat("  ", level)
	if item.Size() == 0 {
		return indentStr + "<L[0]>"
	}

	var sb strings.Builder
	sb.Grow(len(item.values) * 20)

	for _, value := range item.values {
		if v, ok := value.(*ListItem); ok {
			sb.WriteString(v.formatSML(level + 1))
		} else {
			sb.WriteString(indentStr)
			sb.WriteString("  ")
			sb.WriteString(value.ToSML())
		}
		sb.WriteByte('\n')
	}

	return fmt.Sprintf("%s<L[%d]\n%s%s>", indentStr, item.Size(), sb.String(), indentStr)
}

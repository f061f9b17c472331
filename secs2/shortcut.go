package secs2

// The shortcuts below mirror SML item symbols, so a message body reads close to its SML form:
//
//	L(
//		U4(1001),
//		L(A("TEMP"), F4(23.5)),
//	)
//
// Numeric shortcuts fix the byte size and accept the same values as NewIntItem,
// NewUintItem and NewFloatItem.
var (
	L       = NewListItem    // <L ...>
	A       = NewASCIIItem   // <A "...">
	B       = NewBinaryItem  // <B ...>
	BOOLEAN = NewBooleanItem // <BOOLEAN ...>
)

func I1(values ...any) Item { return NewIntItem(1, values...) }
func I2(values ...any) Item { return NewIntItem(2, values...) }
func I4(values ...any) Item { return NewIntItem(4, values...) }
func I8(values ...any) Item { return NewIntItem(8, values...) }

func U1(values ...any) Item { return NewUintItem(1, values...) }
func U2(values ...any) Item { return NewUintItem(2, values...) }
func U4(values ...any) Item { return NewUintItem(4, values...) }
func U8(values ...any) Item { return NewUintItem(8, values...) }

// F4 values lose precision beyond float32 when encoded.
func F4(values ...any) Item { return NewFloatItem(4, values...) }
func F8(values ...any) Item { return NewFloatItem(8, values...) }

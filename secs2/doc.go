// Package secs2 provides the SECS-II data item model and its binary codec.
//
// A SECS-II message body is a single item: either a list of nested items or a flat array of
// values of one format (binary, boolean, ASCII, signed/unsigned integers, floats). Items are
// immutable once created; a constructor that receives invalid input still returns an item, with
// the failure available from Item.Error() and returned again by Item.ToBytes().
//
// Encoding follows SEMI E5: a format byte carrying the 6-bit format code and the width of the
// length field (1 to 3 bytes, always the minimal width), followed by the big-endian length and
// the payload. For a list the length is the number of children.
//
// Usage Example:
//
//	// build an S6F11 event report body
//	body := secs2.L(
//	    secs2.U4(0),
//	    secs2.U4(32000),
//	    secs2.L(),
//	)
//
//	data, err := body.ToBytes()
//	if err != nil {
//	    return err
//	}
//
//	item, err := secs2.Decode(data)
//	fmt.Println(item.ToSML())
//
// ASCII items hold raw bytes. The default character set is US-ASCII; other character sets
// such as GBK or Shift_JIS are used through NewASCIIItemWithEncoding and
// ASCIIItem.ToStringWithEncoding with golang.org/x/text encodings.
package secs2

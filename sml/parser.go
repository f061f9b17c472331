package sml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/go-hsms/hsms"
	"github.com/arloliu/go-hsms/secs2"
)

// ErrSyntax indicates SML text that can't be parsed.
var ErrSyntax = errors.New("sml: syntax error")

var quoteUnescaper = strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\\`, `\`)

// maxDepth bounds the nesting of list items, the same bound the binary decoder applies.
const maxDepth = secs2.MaxListDepth

type parser struct {
	lex    *lexer
	peeked *token
	depth  int
}

func newParser(input string, initial stateFn) *parser {
	return &parser{lex: newLexer(input, initial)}
}

func (p *parser) next() token {
	if p.peeked != nil {
		t := *p.peeked
		p.peeked = nil

		return t
	}

	return p.lex.nextToken()
}

func (p *parser) peek() token {
	if p.peeked == nil {
		t := p.lex.nextToken()
		p.peeked = &t
	}

	return *p.peeked
}

func (p *parser) errorf(t token, format string, args ...any) error {
	if t.typ == tokenTypeError {
		return fmt.Errorf("%w: %s at offset %d", ErrSyntax, t.val, t.pos)
	}

	return fmt.Errorf("%w: %s at offset %d", ErrSyntax, fmt.Sprintf(format, args...), t.pos)
}

func (p *parser) expect(typ tokenType) (token, error) {
	t := p.next()
	if t.typ != typ {
		return t, p.errorf(t, "expect %s, got %s %q", typ, t.typ, t.val)
	}

	return t, nil
}

// ParseItem parses the SML text of one item, e.g. `<L <U4 1> <A "LOT-01">>`.
//
// Empty text results in a nil item.
func ParseItem(text string) (secs2.Item, error) {
	p := newParser(text, lexItem)

	if p.peek().typ == tokenTypeEOF {
		return nil, nil //nolint:nilnil
	}

	item, err := p.parseItem()
	if err != nil {
		return nil, err
	}

	if t := p.next(); t.typ != tokenTypeEOF {
		return nil, p.errorf(t, "unexpected %s %q after item", t.typ, t.val)
	}

	return item, nil
}

// ParseMessage parses the SML text of one data message, e.g. "S1F3 W <L <U4 1>> .".
//
// The trailing dot is optional. The session id and system bytes of the returned message are
// zero, the client assigns them when sending.
func ParseMessage(text string) (*hsms.Message, error) {
	p := newParser(text, lexMessageHeader)

	sf, err := p.expect(tokenTypeStreamFunc)
	if err != nil {
		return nil, err
	}

	stream, function, err := parseStreamFunction(sf.val)
	if err != nil {
		return nil, p.errorf(sf, "%v", err)
	}

	wbit := false
	if p.peek().typ == tokenTypeWaitBit {
		p.next()
		wbit = true
	}

	var body secs2.Item
	if p.peek().typ == tokenTypeLeftAngleBracket {
		if body, err = p.parseItem(); err != nil {
			return nil, err
		}
	}

	if p.peek().typ == tokenTypeMsgEnd {
		p.next()
	}

	if t := p.next(); t.typ != tokenTypeEOF {
		return nil, p.errorf(t, "unexpected %s %q after message", t.typ, t.val)
	}

	return hsms.NewDataMessage(stream, function, wbit, 0, 0, body)
}

func parseStreamFunction(val string) (byte, byte, error) {
	fIdx := strings.IndexByte(val, 'F')

	stream, err := strconv.ParseUint(val[1:fIdx], 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid stream code %s", val[1:fIdx])
	}

	function, err := strconv.ParseUint(val[fIdx+1:], 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid function code %s", val[fIdx+1:])
	}

	return byte(stream), byte(function), nil
}

func (p *parser) parseItem() (secs2.Item, error) {
	if _, err := p.expect(tokenTypeLeftAngleBracket); err != nil {
		return nil, err
	}

	typeToken, err := p.expect(tokenTypeItemType)
	if err != nil {
		return nil, err
	}

	if p.peek().typ == tokenTypeItemSize {
		p.next()
	}

	var item secs2.Item
	switch typeToken.val {
	case "L":
		item, err = p.parseList(typeToken)
	case "A":
		item, err = p.parseASCII()
	case "B":
		item, err = p.parseBinary()
	case "BOOLEAN":
		item, err = p.parseBoolean()
	case "I1", "I2", "I4", "I8":
		item, err = p.parseNumbers(func(values []string) secs2.Item {
			return secs2.NewIntItem(byteSizeOf(typeToken.val), values)
		})
	case "U1", "U2", "U4", "U8":
		item, err = p.parseNumbers(func(values []string) secs2.Item {
			return secs2.NewUintItem(byteSizeOf(typeToken.val), values)
		})
	case "F4", "F8":
		item, err = p.parseNumbers(func(values []string) secs2.Item {
			return secs2.NewFloatItem(byteSizeOf(typeToken.val), values)
		})
	default:
		return nil, p.errorf(typeToken, "unsupported item type %q", typeToken.val)
	}
	if err != nil {
		return nil, err
	}

	if item.Error() != nil {
		return nil, fmt.Errorf("%w: <%s> at offset %d: %w", ErrSyntax, typeToken.val, typeToken.pos, item.Error())
	}

	if _, err := p.expect(tokenTypeRightAngleBracket); err != nil {
		return nil, err
	}

	return item, nil
}

func (p *parser) parseList(typeToken token) (secs2.Item, error) {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > maxDepth {
		return nil, p.errorf(typeToken, "list nesting exceeds %d", maxDepth)
	}

	children := make([]secs2.Item, 0, 4)
	for p.peek().typ == tokenTypeLeftAngleBracket {
		child, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return secs2.NewListItem(children...), nil
}

func (p *parser) parseASCII() (secs2.Item, error) {
	var sb strings.Builder
	for {
		t := p.peek()
		switch t.typ {
		case tokenTypeQuotedString:
			p.next()
			sb.WriteString(quoteUnescaper.Replace(t.val))
		case tokenTypeNumber:
			p.next()
			code, err := strconv.ParseUint(t.val, 0, 8)
			if err != nil {
				return nil, p.errorf(t, "invalid character code %q", t.val)
			}
			sb.WriteByte(byte(code))
		default:
			return secs2.NewASCIIItem(sb.String()), nil
		}
	}
}

func (p *parser) parseBinary() (secs2.Item, error) {
	values := make([]byte, 0, 4)
	for p.peek().typ == tokenTypeNumber {
		t := p.next()
		v, err := strconv.ParseUint(t.val, 0, 8)
		if err != nil {
			return nil, p.errorf(t, "invalid binary value %q", t.val)
		}
		values = append(values, byte(v))
	}

	return secs2.NewBinaryItem(values), nil
}

func (p *parser) parseBoolean() (secs2.Item, error) {
	values := make([]bool, 0, 4)
	for {
		t := p.peek()
		switch t.typ {
		case tokenTypeBool:
			p.next()
			values = append(values, t.val == "T" || t.val == "TRUE")
		case tokenTypeNumber:
			p.next()
			v, err := strconv.ParseUint(t.val, 0, 8)
			if err != nil {
				return nil, p.errorf(t, "invalid boolean value %q", t.val)
			}
			values = append(values, v != 0)
		default:
			return secs2.NewBooleanItem(values), nil
		}
	}
}

func (p *parser) parseNumbers(newItem func(values []string) secs2.Item) (secs2.Item, error) {
	values := make([]string, 0, 4)
	for p.peek().typ == tokenTypeNumber {
		values = append(values, decimalOrPrefixed(p.next().val))
	}

	return newItem(values), nil
}

// decimalOrPrefixed strips the leading zeros of a decimal number, they would select base 8 in
// strconv base 0 parsing.
func decimalOrPrefixed(val string) string {
	sign := ""
	if val != "" && (val[0] == '+' || val[0] == '-') {
		sign, val = val[:1], val[1:]
	}

	if len(val) > 1 && val[0] == '0' && !strings.ContainsAny(val[1:2], "xXbBoO.eE") {
		val = strings.TrimLeft(val, "0")
		if val == "" || val[0] == '.' || val[0] == 'e' || val[0] == 'E' {
			val = "0" + val
		}
	}

	return sign + val
}

func byteSizeOf(itemType string) int {
	size, _ := strconv.Atoi(itemType[1:])
	return size
}

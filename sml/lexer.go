package sml

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/arloliu/go-hsms/internal/queue"
)

const eof rune = -1

type tokenType int

const (
	tokenTypeEOF               tokenType = iota // EOF
	tokenTypeError                              // lexing error
	tokenTypeMsgEnd                             // '.'
	tokenTypeStreamFunc                         // 'S' [0-9]+ 'F' [0-9]+, case insensitive
	tokenTypeWaitBit                            // 'W', '[W]', case insensitive
	tokenTypeLeftAngleBracket                   // '<'
	tokenTypeRightAngleBracket                  // '>'
	tokenTypeItemType                           // 'L', 'B', 'BOOLEAN', 'A', 'F4' ..., case insensitive
	tokenTypeItemSize                           // '[' [0-9]+ ('..' [0-9]+)? ']'
	tokenTypeNumber                             // decimal, 0x, 0b, 0o and floating-point numbers
	tokenTypeBool                               // 'T', 'F', case insensitive
	tokenTypeQuotedString                       // "quoted" or 'quoted'
)

func (t tokenType) String() string {
	switch t {
	case tokenTypeEOF:
		return "EOF"
	case tokenTypeError:
		return "error"
	case tokenTypeMsgEnd:
		return "'.'"
	case tokenTypeStreamFunc:
		return "stream/function"
	case tokenTypeWaitBit:
		return "W-bit"
	case tokenTypeLeftAngleBracket:
		return "'<'"
	case tokenTypeRightAngleBracket:
		return "'>'"
	case tokenTypeItemType:
		return "item type"
	case tokenTypeItemSize:
		return "item size"
	case tokenTypeNumber:
		return "number"
	case tokenTypeBool:
		return "boolean"
	case tokenTypeQuotedString:
		return "quoted string"
	default:
		return "unknown"
	}
}

type token struct {
	typ tokenType
	val string
	pos int
}

type stateFn func(*lexer) stateFn

// lexer is a state function scanner. Each state scans one token at most and returns the next
// state, tokens are buffered until the parser takes them.
type lexer struct {
	input  string
	state  stateFn
	pos    int
	start  int
	width  int
	tokens queue.Queue[token]
}

func newLexer(input string, initial stateFn) *lexer {
	return &lexer{
		input:  input,
		state:  initial,
		tokens: queue.NewSliceQueue[token](4),
	}
}

func (l *lexer) nextToken() token {
	for l.tokens.IsEmpty() {
		if l.state == nil {
			return token{typ: tokenTypeEOF, pos: l.pos}
		}
		l.state = l.state(l)
	}

	t, _ := l.tokens.Dequeue()

	return t
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}

	r, width := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = width
	l.pos += width

	return r
}

func (l *lexer) back() { l.pos -= l.width }

func (l *lexer) peek() rune {
	r := l.next()
	l.back()

	return r
}

func (l *lexer) ignore() { l.start = l.pos }

func (l *lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.back()

	return false
}

func (l *lexer) acceptRun(valid string) {
	for strings.ContainsRune(valid, l.next()) {
	}
	l.back()
}

func (l *lexer) emit(t tokenType) {
	l.tokens.Enqueue(token{typ: t, val: l.input[l.start:l.pos], pos: l.start})
	l.start = l.pos
}

func (l *lexer) emitUpper(t tokenType) {
	l.tokens.Enqueue(token{typ: t, val: strings.ToUpper(l.input[l.start:l.pos]), pos: l.start})
	l.start = l.pos
}

func (l *lexer) errorf(format string, args ...any) stateFn {
	l.tokens.Enqueue(token{typ: tokenTypeError, val: fmt.Sprintf(format, args...), pos: l.start})
	return nil
}

// skipSpaceAndComments skips whitespaces and "//" comments.
func (l *lexer) skipSpaceAndComments() {
	for {
		r := l.next()
		switch {
		case r == eof:
			l.ignore()
			return
		case unicode.IsSpace(r):
			continue
		case r == '/' && strings.HasPrefix(l.input[l.pos:], "/"):
			if i := strings.IndexByte(l.input[l.pos:], '\n'); i >= 0 {
				l.pos += i + 1
			} else {
				l.pos = len(l.input)
			}
		default:
			l.back()
			l.ignore()

			return
		}
	}
}

// lexMessageHeader scans the "SxFy W" header of a message.
func lexMessageHeader(l *lexer) stateFn {
	l.skipSpaceAndComments()

	switch r := l.peek(); {
	case r == eof:
		l.emit(tokenTypeEOF)
		return nil
	case r == 'S' || r == 's':
		return lexStreamFunction
	case r == 'W' || r == 'w' || r == '[':
		return lexWaitBit
	case r == '<' || r == '.':
		return lexItem
	default:
		return l.errorf("unexpected character in message header: %#U", r)
	}
}

func lexStreamFunction(l *lexer) stateFn {
	l.accept("Ss")
	if !l.accept("0123456789") {
		return l.errorf("invalid stream code")
	}
	l.acceptRun("0123456789")

	if !l.accept("Ff") || !l.accept("0123456789") {
		return l.errorf("invalid function code")
	}
	l.acceptRun("0123456789")
	l.emitUpper(tokenTypeStreamFunc)

	return lexMessageHeader
}

func lexWaitBit(l *lexer) stateFn {
	bracket := l.accept("[")
	if !l.accept("Ww") {
		return l.errorf("invalid W-bit")
	}
	if bracket && !l.accept("]") {
		return l.errorf("unclosed W-bit")
	}
	l.emitUpper(tokenTypeWaitBit)

	return lexMessageHeader
}

// lexItem scans the item text of a message or a standalone item.
func lexItem(l *lexer) stateFn {
	l.skipSpaceAndComments()

	r := l.next()
	switch {
	case r == eof:
		l.emit(tokenTypeEOF)
		return nil
	case r == '<':
		l.emit(tokenTypeLeftAngleBracket)
		return lexItemType
	case r == '>':
		l.emit(tokenTypeRightAngleBracket)
		return lexItem
	case r == '[':
		l.back()
		return lexItemSize
	case r == '"' || r == '\'':
		l.back()
		return lexQuotedString
	case r == '+' || r == '-' || isDigit(r) || (r == '.' && isDigit(l.peek())):
		l.back()
		return lexNumber
	case r == '.':
		l.emit(tokenTypeMsgEnd)
		return lexMessageHeader
	case isAlphaNumeric(r):
		l.acceptWord()
		switch word := strings.ToUpper(l.input[l.start:l.pos]); word {
		case "T", "F", "TRUE", "FALSE":
			l.emitUpper(tokenTypeBool)
			return lexItem
		default:
			return l.errorf("unexpected word in item: %q", word)
		}
	default:
		return l.errorf("unexpected character in item: %#U", r)
	}
}

func lexItemType(l *lexer) stateFn {
	l.skipSpaceAndComments()
	l.acceptWord()

	switch strings.ToUpper(l.input[l.start:l.pos]) {
	case "L", "A", "B", "BOOLEAN", "F4", "F8",
		"I1", "I2", "I4", "I8", "U1", "U2", "U4", "U8":
		l.emitUpper(tokenTypeItemType)
		return lexItem
	default:
		return l.errorf("invalid item type: %q", l.input[l.start:l.pos])
	}
}

func lexItemSize(l *lexer) stateFn {
	numberFound := false

	l.accept("[")
	l.acceptRun(" \t")
	if l.accept("0123456789") {
		numberFound = true
		l.acceptRun("0123456789")
		l.acceptRun(" \t")
	}
	if strings.HasPrefix(l.input[l.pos:], "..") {
		l.pos += 2
		l.acceptRun(" \t")
		if l.accept("0123456789") {
			numberFound = true
			l.acceptRun("0123456789")
			l.acceptRun(" \t")
		}
	}

	if !l.accept("]") || !numberFound {
		return l.errorf("invalid item size")
	}
	l.emit(tokenTypeItemSize)

	return lexItem
}

func lexQuotedString(l *lexer) stateFn {
	quote := l.next()
	l.ignore()

	for {
		switch r := l.next(); r {
		case eof, '\r', '\n':
			return l.errorf("unclosed quoted string")
		case '\\':
			if next := l.peek(); next == quote || next == '\\' {
				l.next()
			}
		case quote:
			l.back()
			l.emit(tokenTypeQuotedString)
			l.next()
			l.ignore()

			return lexItem
		}
	}
}

func lexNumber(l *lexer) stateFn {
	l.accept("+-")

	digits := "0123456789"
	if l.accept("0") {
		switch {
		case l.accept("xX"):
			digits = "0123456789abcdefABCDEF"
		case l.accept("bB"):
			digits = "01"
		case l.accept("oO"):
			digits = "01234567"
		}
	}
	l.acceptRun(digits)

	if l.accept(".") {
		l.acceptRun(digits)
	}

	if l.accept("eE") {
		l.accept("+-")
		l.acceptRun("0123456789")
	}

	if isAlphaNumeric(l.peek()) {
		l.next()
		return l.errorf("invalid number syntax: %q", l.input[l.start:l.pos])
	}
	l.emit(tokenTypeNumber)

	return lexItem
}

func (l *lexer) acceptWord() {
	for isAlphaNumeric(l.next()) {
	}
	l.back()
}

func isAlphaNumeric(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

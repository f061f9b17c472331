package sml

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-hsms/hsms"
	"github.com/arloliu/go-hsms/secs2"
)

func TestParseItem(t *testing.T) {
	tests := []struct {
		description string
		input       string
		expected    secs2.Item
	}{
		{description: "empty list", input: "<L>", expected: secs2.L()},
		{description: "empty list with size", input: "<L[0]>", expected: secs2.L()},
		{description: "ascii", input: `<A "LOT-01">`, expected: secs2.A("LOT-01")},
		{description: "ascii single quoted", input: `<A 'say "hi"'>`, expected: secs2.A(`say "hi"`)},
		{description: "ascii escaped quote", input: `<A "a\"b">`, expected: secs2.A(`a"b`)},
		{description: "ascii escaped backslash", input: `<A "C:\\lot\\">`, expected: secs2.A(`C:\lot\`)},
		{description: "ascii with char codes", input: `<A[4] "ab" 0x0D 0x0A>`, expected: secs2.A("ab\r\n")},
		{description: "empty ascii", input: "<A[0]>", expected: secs2.A("")},
		{description: "binary", input: "<B 0x01 0xff 7 0b11>", expected: secs2.B([]byte{1, 0xFF, 7, 3})},
		{description: "boolean", input: "<BOOLEAN[3] True f 0x01>", expected: secs2.BOOLEAN(true, false, true)},
		{description: "i1", input: "<I1 -128 127>", expected: secs2.I1(-128, 127)},
		{description: "i8 leading zeros", input: "<I8 007 -010>", expected: secs2.I8(7, -10)},
		{description: "u4 hex", input: "<U4[2] 0 0x7D00>", expected: secs2.U4(0, 32000)},
		{description: "u8", input: "<u8 18446744073709551615>", expected: secs2.U8(uint64(18446744073709551615))},
		{description: "f4", input: "<F4 -1 3.5 .25>", expected: secs2.F4(-1, 3.5, 0.25)},
		{description: "f8 exponent", input: "<F8 1e+06 2.5E-3>", expected: secs2.F8(1e6, 2.5e-3)},
		{
			description: "nested list with comments",
			input: `<L[2] // status
				<U4 1>
				<L <A "x"> <B 0x00>>
			>`,
			expected: secs2.L(secs2.U4(1), secs2.L(secs2.A("x"), secs2.B(0))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			item, err := ParseItem(tt.input)
			require.NoError(err)
			require.Equal(tt.expected.ToSML(), item.ToSML())

			expected, err := tt.expected.ToBytes()
			require.NoError(err)
			actual, err := item.ToBytes()
			require.NoError(err)
			require.Equal(expected, actual)
		})
	}
}

func TestParseItem_Empty(t *testing.T) {
	require := require.New(t)

	item, err := ParseItem("  // nothing\n")
	require.NoError(err)
	require.Nil(item)
}

func TestParseItem_Errors(t *testing.T) {
	tests := []struct {
		description string
		input       string
	}{
		{description: "unknown type", input: "<X 1>"},
		{description: "missing close", input: "<L <U4 1>"},
		{description: "unclosed string", input: `<A "abc>`},
		{description: "string across lines", input: "<A \"ab\ncd\">"},
		{description: "u1 overflow", input: "<U1 256>"},
		{description: "i1 overflow", input: "<I1 -129>"},
		{description: "negative uint", input: "<U4 -1>"},
		{description: "binary overflow", input: "<B 0x100>"},
		{description: "invalid number", input: "<U4 12ab>"},
		{description: "word in numbers", input: "<U4 1 two>"},
		{description: "string in numbers", input: `<U4 "1">`},
		{description: "trailing item", input: "<U4 1> <U4 2>"},
		{description: "bad size", input: "<L[x]>"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			_, err := ParseItem(tt.input)
			require.ErrorIs(err, ErrSyntax)
		})
	}
}

func TestParseItem_DepthLimit(t *testing.T) {
	require := require.New(t)

	build := func(depth int) string {
		text := ""
		for range depth {
			text += "<L "
		}
		for range depth {
			text += ">"
		}

		return text
	}

	_, err := ParseItem(build(maxDepth))
	require.NoError(err)

	_, err = ParseItem(build(maxDepth + 1))
	require.ErrorIs(err, ErrSyntax)
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		description string
		input       string
		stream      byte
		function    byte
		wbit        bool
		body        secs2.Item
	}{
		{description: "header only", input: "S1F1 W.", stream: 1, function: 1, wbit: true},
		{description: "no trailing dot", input: "s1f2 <L <A \"MDLN\"> <A \"1.0\">>", stream: 1, function: 2, body: secs2.L(secs2.A("MDLN"), secs2.A("1.0"))},
		{description: "bracketed wait bit", input: "S2F41 [W] <L[0]> .", stream: 2, function: 41, wbit: true, body: secs2.L()},
		{description: "multi line", input: "S1F3 W\n<L[2]\n  <U4[1] 0>\n  <U4[1] 32000>\n>\n.", stream: 1, function: 3, wbit: true, body: secs2.L(secs2.U4(0), secs2.U4(32000))},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			msg, err := ParseMessage(tt.input)
			require.NoError(err)
			require.True(msg.IsDataMessage())
			require.Equal(tt.stream, msg.Header.Stream)
			require.Equal(tt.function, msg.Header.Function)
			require.Equal(tt.wbit, msg.Header.WBit)
			require.Zero(msg.Header.SystemBytes)

			if tt.body == nil {
				require.Nil(msg.Body)
				return
			}
			require.Equal(tt.body.ToSML(), msg.Body.ToSML())
		})
	}
}

func TestParseMessage_RoundTrip(t *testing.T) {
	require := require.New(t)

	body := secs2.L(
		secs2.A("LOT-01"),
		secs2.B(0x00, 0x7F),
		secs2.BOOLEAN(true, false),
		secs2.I2(-300, 300),
		secs2.U8(uint64(1)<<40),
		secs2.F8(-2.5),
		secs2.L(),
	)
	msg, err := hsms.NewDataRequest(0, 6, 11, 0, body)
	require.NoError(err)

	parsed, err := ParseMessage(msg.ToSML())
	require.NoError(err)
	require.Equal(msg.ToSML(), parsed.ToSML())
}

func TestParseMessage_Errors(t *testing.T) {
	tests := []struct {
		description string
		input       string
		expectedErr error
	}{
		{description: "empty", input: "", expectedErr: ErrSyntax},
		{description: "missing stream function", input: "<L>.", expectedErr: ErrSyntax},
		{description: "stream overflow", input: "S300F1 .", expectedErr: ErrSyntax},
		{description: "stream out of range", input: "S128F1 .", expectedErr: hsms.ErrInvalidStreamCode},
		{description: "bad function", input: "S1Fx .", expectedErr: ErrSyntax},
		{description: "two bodies", input: "S1F1 <L> <L> .", expectedErr: ErrSyntax},
		{description: "two messages", input: "S1F1 . S1F2 .", expectedErr: ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			_, err := ParseMessage(tt.input)
			require.ErrorIs(err, tt.expectedErr)
		})
	}
}

func FuzzParseItem(f *testing.F) {
	f.Add(`<L <U4 1> <A "x">>`)
	f.Add(`<A 'a' 0x0A "b\"c">`)
	f.Add("<B 0x01 0b10 0o7>")
	f.Add("<F8 1e+06 -.5>")
	f.Add("<BOOLEAN T F 1>")
	f.Add("<L[2..3] // comment\n>")

	f.Fuzz(func(t *testing.T, text string) {
		item, err := ParseItem(text)
		if err != nil || item == nil {
			return
		}

		// parsed items print SML that parses to the same item
		again, err := ParseItem(item.ToSML())
		if err != nil {
			t.Fatalf("%q: reparse of %q: %v", text, item.ToSML(), err)
		}
		if again.ToSML() != item.ToSML() {
			t.Fatalf("%q: reparse differs: %q vs %q", text, again.ToSML(), item.ToSML())
		}
	})
}

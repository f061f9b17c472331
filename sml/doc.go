/*
Package sml parses SML (SECS Message Language) text into SECS-II items and HSMS data messages.

The accepted syntax is the one produced by secs2.Item.ToSML and hsms.Message.ToSML:

	S1F3 W
	<L[2]
	  <U4[1] 0>
	  <A "LOT-01" 0x0A>
	>
	.

Item sizes in brackets are optional and not checked. Numbers may be decimal or prefixed with
0x, 0b or 0o. ASCII items concatenate quoted strings and character codes. Comments start with
"//" and end at the end of the line.
*/
package sml

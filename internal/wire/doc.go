// Package wire holds the XML tree conventions shared by every openpeer
// message codec.
//
// Values are written as child elements. Numbers are canonical decimal text,
// times use TimeLayout in UTC at second precision, booleans are "true" or
// "false", and lists are repeated item elements under a named container.
// Fields that may carry structured content are JSON-encoded on write (the text
// is a JSON string literal) and decoded on read; plain text fields are never
// decoded that way.
//
// Readers never fail: a missing element or unparsable value yields the zero
// value, which the message layer treats as "attribute absent".
package wire

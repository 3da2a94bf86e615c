package wire

import (
	"errors"
	"strconv"
	"time"

	"github.com/beevik/etree"
	json "github.com/goccy/go-json"
)

// TimeLayout is the fixed wire form of every time value.
const TimeLayout = "2006-01-02T15:04:05Z"

// ErrNoRoot is returned by Parse when the input has no root element.
var ErrNoRoot = errors.New("wire: document has no root element")

// Parse reads one XML document.
func Parse(b []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(b); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, ErrNoRoot
	}
	return doc, nil
}

// Bytes serializes doc without indentation.
func Bytes(doc *etree.Document) ([]byte, error) {
	return doc.WriteToBytes()
}

// Text appends <tag>text</tag> to parent.
func Text(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement(tag)
	if text != "" {
		el.SetText(text)
	}
	return el
}

// Uint appends an unsigned decimal value.
func Uint(parent *etree.Element, tag string, v uint64) *etree.Element {
	return Text(parent, tag, strconv.FormatUint(v, 10))
}

// Int appends a signed decimal value.
func Int(parent *etree.Element, tag string, v int64) *etree.Element {
	return Text(parent, tag, strconv.FormatInt(v, 10))
}

// Bool appends "true" or "false".
func Bool(parent *etree.Element, tag string, v bool) *etree.Element {
	return Text(parent, tag, strconv.FormatBool(v))
}

// Time appends t in TimeLayout.
func Time(parent *etree.Element, tag string, t time.Time) *etree.Element {
	return Text(parent, tag, FormatTime(t))
}

// JSON appends s encoded as a JSON string literal.
func JSON(parent *etree.Element, tag, s string) *etree.Element {
	b, err := json.Marshal(s)
	if err != nil {
		// Marshalling a Go string cannot fail.
		panic(err)
	}
	return Text(parent, tag, string(b))
}

// Strings appends a container holding one item element per value.
func Strings(parent *etree.Element, container, item string, vals []string) *etree.Element {
	c := parent.CreateElement(container)
	for _, v := range vals {
		Text(c, item, v)
	}
	return c
}

// FormatTime renders t in TimeLayout; the zero time renders as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// ParseTime is the inverse of FormatTime; bad input yields the zero time.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Child returns the first child of el named tag, or nil.
func Child(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	return el.SelectElement(tag)
}

// ChildText returns the text of the first child named tag.
func ChildText(el *etree.Element, tag string) string {
	c := Child(el, tag)
	if c == nil {
		return ""
	}
	return c.Text()
}

// ChildUint parses an unsigned decimal child.
func ChildUint(el *etree.Element, tag string) uint64 {
	v, err := strconv.ParseUint(ChildText(el, tag), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ChildInt parses a signed decimal child.
func ChildInt(el *etree.Element, tag string) int64 {
	v, err := strconv.ParseInt(ChildText(el, tag), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ChildBool reports whether the child text is "true".
func ChildBool(el *etree.Element, tag string) bool {
	v, err := strconv.ParseBool(ChildText(el, tag))
	return err == nil && v
}

// ChildTime parses a TimeLayout child.
func ChildTime(el *etree.Element, tag string) time.Time {
	return ParseTime(ChildText(el, tag))
}

// ChildJSON decodes a child written by JSON.
func ChildJSON(el *etree.Element, tag string) string {
	raw := ChildText(el, tag)
	if raw == "" {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return ""
	}
	return s
}

// ChildStrings reads the item texts of a container written by Strings.
func ChildStrings(el *etree.Element, container, item string) []string {
	var out []string
	Each(el, container, item, func(it *etree.Element) {
		out = append(out, it.Text())
	})
	return out
}

// Attr returns the attribute value or "".
func Attr(el *etree.Element, key string) string {
	if el == nil {
		return ""
	}
	return el.SelectAttrValue(key, "")
}

// AttrUint parses an unsigned decimal attribute.
func AttrUint(el *etree.Element, key string) uint64 {
	v, err := strconv.ParseUint(Attr(el, key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// SetAttr sets key=value on el when value is not empty.
func SetAttr(el *etree.Element, key, value string) {
	if value != "" {
		el.CreateAttr(key, value)
	}
}

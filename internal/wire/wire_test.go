package wire_test

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/wire"
)

func TestScalarsRoundTrip(t *testing.T) {
	doc := etree.NewDocument()
	root := doc.CreateElement("request")
	when := time.Date(2024, 3, 9, 12, 30, 5, 999, time.UTC)

	wire.Text(root, "name", "alice & bob")
	wire.Uint(root, "version", 42)
	wire.Int(root, "delta", -7)
	wire.Bool(root, "reset", true)
	wire.Time(root, "expires", when)
	wire.JSON(root, "metaData", `{"k":"v"}`)
	wire.Strings(root, "domains", "domain", []string{"a.example", "b.example"})

	b, err := wire.Bytes(doc)
	require.NoError(t, err)

	back, err := wire.Parse(b)
	require.NoError(t, err)
	r := back.Root()

	assert.Equal(t, "alice & bob", wire.ChildText(r, "name"))
	assert.Equal(t, uint64(42), wire.ChildUint(r, "version"))
	assert.Equal(t, int64(-7), wire.ChildInt(r, "delta"))
	assert.True(t, wire.ChildBool(r, "reset"))
	assert.Equal(t, when.Truncate(time.Second), wire.ChildTime(r, "expires"))
	assert.Equal(t, `{"k":"v"}`, wire.ChildJSON(r, "metaData"))
	assert.Equal(t, []string{"a.example", "b.example"}, wire.ChildStrings(r, "domains", "domain"))
}

func TestMissingValuesAreZero(t *testing.T) {
	doc, err := wire.Parse([]byte(`<result><version>abc</version></result>`))
	require.NoError(t, err)
	r := doc.Root()

	assert.Zero(t, wire.ChildUint(r, "version"))
	assert.Zero(t, wire.ChildUint(r, "missing"))
	assert.False(t, wire.ChildBool(r, "missing"))
	assert.True(t, wire.ChildTime(r, "missing").IsZero())
	assert.Empty(t, wire.ChildJSON(r, "missing"))
	assert.Nil(t, wire.ChildStrings(r, "missing", "item"))
	assert.Empty(t, wire.Attr(nil, "id"))
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := wire.Parse([]byte(`   `))
	require.Error(t, err)

	_, err = wire.Parse([]byte(`<a><b></a>`))
	require.Error(t, err)
}

func TestEachSkipsOtherTags(t *testing.T) {
	doc, err := wire.Parse([]byte(`<r><list><item>1</item><other/><item>2</item><item>3</item></list></r>`))
	require.NoError(t, err)

	var got []string
	wire.Each(doc.Root(), "list", "item", func(el *etree.Element) {
		got = append(got, el.Text())
	})
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestCanonicalIgnoresAttributeOrder(t *testing.T) {
	a, err := wire.Parse([]byte(`<x b="2" a="1"><y d="4" c="3">t</y></x>`))
	require.NoError(t, err)
	b, err := wire.Parse([]byte(`<x a="1" b="2"><y c="3" d="4">t</y></x>`))
	require.NoError(t, err)

	assert.Equal(t, wire.Canonical(a.Root()), wire.Canonical(b.Root()))
	assert.NotEqual(t, wire.Canonical(a.Root()), wire.Canonical(a.Root().SelectElement("y")))
}

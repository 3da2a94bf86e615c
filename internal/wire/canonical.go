package wire

import "github.com/beevik/etree"

// Canonical returns deterministic bytes for el: a deep copy with every
// element's attributes sorted by key, serialized without indentation.
func Canonical(el *etree.Element) []byte {
	if el == nil {
		return nil
	}
	cp := el.Copy()
	sortAttrs(cp)
	doc := etree.NewDocumentWithRoot(cp)
	b, err := doc.WriteToBytes()
	if err != nil {
		return nil
	}
	return b
}

func sortAttrs(el *etree.Element) {
	el.SortAttrs()
	for _, c := range el.ChildElements() {
		sortAttrs(c)
	}
}

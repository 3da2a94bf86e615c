package wire

import "github.com/beevik/etree"

// Each calls fn for every item element under the named container of el, in
// document order. An empty container name iterates items directly under el.
func Each(el *etree.Element, container, item string, fn func(*etree.Element)) {
	c := el
	if container != "" {
		c = Child(el, container)
	}
	if c == nil {
		return
	}
	for it := FirstChild(c, item); it != nil; it = NextSibling(it, item) {
		fn(it)
	}
}

// FirstChild returns the first child of el named tag.
func FirstChild(el *etree.Element, tag string) *etree.Element {
	return Child(el, tag)
}

// NextSibling returns the next sibling of el named tag.
func NextSibling(el *etree.Element, tag string) *etree.Element {
	for s := el.NextSibling(); s != nil; s = s.NextSibling() {
		if s.Tag == tag {
			return s
		}
	}
	return nil
}

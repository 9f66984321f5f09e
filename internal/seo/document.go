package seo

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed page whose head can be rewritten in place.
type Document struct {
	root *html.Node
	head *html.Node
}

// Parse reads a full HTML page. The parser always produces a head element,
// even for fragments.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	d := &Document{root: root}
	d.head = findFirst(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Head
	})
	if d.head == nil {
		d.head = &html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head}
		if htmlEl := findFirst(root, isElement(atom.Html)); htmlEl != nil {
			htmlEl.InsertBefore(d.head, htmlEl.FirstChild)
		} else {
			root.AppendChild(d.head)
		}
	}
	return d, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

// Root exposes the tree for callers that rewrite the body.
func (d *Document) Root() *html.Node { return d.root }

func (d *Document) Title() string {
	t := findFirst(d.head, isElement(atom.Title))
	if t == nil {
		return ""
	}
	return textOf(t)
}

// MetaContents returns the content of every meta tag whose attr (name or
// property) equals key, in document order.
func (d *Document) MetaContents(attr, key string) []string {
	var out []string
	for _, n := range findAll(d.root, metaMatcher(attr, key)) {
		out = append(out, attrOf(n, "content"))
	}
	return out
}

// Canonicals returns the href of every canonical link.
func (d *Document) Canonicals() []string {
	var out []string
	for _, n := range findAll(d.root, canonicalMatcher) {
		out = append(out, attrOf(n, "href"))
	}
	return out
}

// StructuredData returns the bodies of the JSON-LD scripts tagged with kind.
func (d *Document) StructuredData(kind string) []string {
	var out []string
	for _, n := range findAll(d.root, jsonLDMatcher(kind)) {
		out = append(out, textOf(n))
	}
	return out
}

func (d *Document) setTitle(title string) {
	titles := findAll(d.root, isElement(atom.Title))
	var t *html.Node
	if len(titles) > 0 {
		t = titles[0]
		for _, extra := range titles[1:] {
			remove(extra)
		}
	} else {
		t = &html.Node{Type: html.ElementNode, Data: "title", DataAtom: atom.Title}
		d.head.InsertBefore(t, d.head.FirstChild)
	}
	for c := t.FirstChild; c != nil; {
		next := c.NextSibling
		t.RemoveChild(c)
		c = next
	}
	t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
}

// setMeta keeps exactly one meta tag for attr=key and sets its content.
func (d *Document) setMeta(attr, key, value string) {
	found := findAll(d.root, metaMatcher(attr, key))
	if len(found) == 0 {
		d.head.AppendChild(newMeta(attr, key, value))
		return
	}
	for _, extra := range found[1:] {
		remove(extra)
	}
	setAttr(found[0], "content", value)
}

// setMetaList replaces every meta tag for attr=key with one per value, at the
// position of the first tag it replaces.
func (d *Document) setMetaList(attr, key string, values []string) {
	nodes := make([]*html.Node, 0, len(values))
	for _, v := range values {
		nodes = append(nodes, newMeta(attr, key, v))
	}
	d.replaceAll(findAll(d.root, metaMatcher(attr, key)), nodes)
}

// replaceAll swaps old for repl. repl lands where the first old node was, or
// at the end of the head when there was none.
func (d *Document) replaceAll(old, repl []*html.Node) {
	for _, n := range repl {
		if len(old) > 0 && old[0].Parent != nil {
			old[0].Parent.InsertBefore(n, old[0])
		} else {
			d.head.AppendChild(n)
		}
	}
	for _, n := range old {
		remove(n)
	}
}

func (d *Document) removeMeta(attr, key string) {
	for _, n := range findAll(d.root, metaMatcher(attr, key)) {
		remove(n)
	}
}

func (d *Document) removeMetaPrefix(attr, prefix string) {
	for _, n := range findAll(d.root, func(n *html.Node) bool {
		return isElement(atom.Meta)(n) && strings.HasPrefix(attrOf(n, attr), prefix)
	}) {
		remove(n)
	}
}

func (d *Document) setCanonical(href string) {
	found := findAll(d.root, canonicalMatcher)
	if len(found) == 0 {
		d.head.AppendChild(&html.Node{
			Type:     html.ElementNode,
			Data:     "link",
			DataAtom: atom.Link,
			Attr:     []html.Attribute{{Key: "rel", Val: "canonical"}, {Key: "href", Val: href}},
		})
		return
	}
	for _, extra := range found[1:] {
		remove(extra)
	}
	setAttr(found[0], "href", href)
}

// setStructuredData replaces every JSON-LD block tagged kind with one block.
func (d *Document) setStructuredData(kind, payload string) {
	old := findAll(d.root, jsonLDMatcher(kind))
	if payload == "" {
		d.replaceAll(old, nil)
		return
	}
	script := &html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
		Attr: []html.Attribute{
			{Key: "type", Val: "application/ld+json"},
			{Key: "data-dynamic", Val: kind},
		},
	}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: payload})
	d.replaceAll(old, []*html.Node{script})
}

func (d *Document) removeStructuredData(kind string) {
	for _, n := range findAll(d.root, jsonLDMatcher(kind)) {
		remove(n)
	}
}

func newMeta(attr, key, value string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "meta",
		DataAtom: atom.Meta,
		Attr:     []html.Attribute{{Key: attr, Val: key}, {Key: "content", Val: value}},
	}
}

func isElement(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == a
	}
}

func metaMatcher(attr, key string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return isElement(atom.Meta)(n) && attrOf(n, attr) == key
	}
}

func canonicalMatcher(n *html.Node) bool {
	return isElement(atom.Link)(n) && strings.EqualFold(attrOf(n, "rel"), "canonical")
}

func jsonLDMatcher(kind string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return isElement(atom.Script)(n) &&
			attrOf(n, "type") == "application/ld+json" &&
			attrOf(n, "data-dynamic") == kind
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var f func(*html.Node)
	f = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	if n != nil {
		f(n)
	}
	return out
}

func remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return b.String()
}

package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"reshub/internal/ingest"
)

const (
	InlineCTAClass   = "cta-inline"
	inlineCTAHeading = "Ready to see what this could earn on your lot?"
	inlineCTACopy    = "We’ll map the numbers, project the lift, and build a plan that fits your property."
	inlineCTAButton  = "Plan My Revenue Boost"
)

// BodyPipeline turns a fetched article body into safe, enhanced HTML.
type BodyPipeline struct {
	markdown *MarkdownRenderer
	policy   *bluemonday.Policy
}

func NewBodyPipeline() *BodyPipeline {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6", "section", "div")
	p.AllowAttrs("loading", "decoding", "width", "height").OnElements("img")
	p.AllowAttrs("data-cta").OnElements("a")
	return &BodyPipeline{markdown: NewMarkdownRenderer(), policy: p}
}

// Process renders, sanitizes and enhances body. title is the fallback alt text
// for images that carry none.
func (p *BodyPipeline) Process(body ingest.Body, title string) (template.HTML, error) {
	src := body.Source
	if body.Format == ingest.BodyMarkdown {
		out, err := p.markdown.Render(src)
		if err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		src = out
	}
	clean := p.policy.SanitizeBytes(src)
	enhanced, err := Enhance(clean, title)
	if err != nil {
		return "", err
	}
	return template.HTML(enhanced), nil
}

// Enhance lazy-loads images, fills missing alt text and places the inline CTA.
// Running it over its own output changes nothing.
func Enhance(fragment []byte, title string) ([]byte, error) {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), container)
	if err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	alt := strings.TrimSpace(title)
	if alt == "" {
		alt = "Article image"
	}
	walk(container, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.Img {
			return
		}
		setAttr(n, "loading", "lazy")
		if strings.TrimSpace(attr(n, "alt")) == "" {
			setAttr(n, "alt", alt)
		}
	})
	insertInlineCTA(container)

	var buf bytes.Buffer
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// insertInlineCTA puts one CTA block before the third section heading, or the
// last heading when there are fewer, or at the top of a body without any.
func insertInlineCTA(container *html.Node) {
	var headings []*html.Node
	present := false
	walk(container, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if n.DataAtom == atom.Div && hasClass(n, InlineCTAClass) {
			present = true
		}
		if n.DataAtom == atom.H2 || n.DataAtom == atom.H3 {
			headings = append(headings, n)
		}
	})
	if present {
		return
	}

	var target *html.Node
	switch {
	case len(headings) >= 3:
		target = headings[2]
	case len(headings) > 0:
		target = headings[len(headings)-1]
	default:
		target = container.FirstChild
	}
	if target == nil || target.Parent == nil {
		return
	}
	target.Parent.InsertBefore(inlineCTA(), target)
}

func inlineCTA() *html.Node {
	wrapper := element(atom.Div, html.Attribute{Key: "class", Val: InlineCTAClass})

	copyP := element(atom.P)
	strong := element(atom.Strong)
	strong.AppendChild(&html.Node{Type: html.TextNode, Data: inlineCTAHeading})
	copyP.AppendChild(strong)
	copyP.AppendChild(&html.Node{Type: html.TextNode, Data: " " + inlineCTACopy})

	button := element(atom.A,
		html.Attribute{Key: "href", Val: "/contact/"},
		html.Attribute{Key: "class", Val: "btn"},
		html.Attribute{Key: "data-cta", Val: "inline"},
	)
	button.AppendChild(&html.Node{Type: html.TextNode, Data: inlineCTAButton})

	wrapper.AppendChild(copyP)
	wrapper.AppendChild(button)
	return wrapper
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

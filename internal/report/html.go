package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phrazzld/genewise-api/internal/extract"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// droppedElements are removed together with their content.
var droppedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Form:     true,
	atom.Input:    true,
	atom.Button:   true,
	atom.Link:     true,
	atom.Meta:     true,
	atom.Base:     true,
	atom.Frame:    true,
	atom.Frameset: true,
}

var markdown = goldmark.New()

// SummaryHTML validates a summary reply: it unwraps any code fence, renders
// markdown when the reply is not already HTML and sanitizes the result.
func SummaryHTML(raw string) (any, error) {
	text := extract.Unfence(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty summary", extract.ErrShape)
	}

	if !looksLikeHTML(text) {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(text), &buf); err != nil {
			return nil, fmt.Errorf("%w: render markdown: %v", extract.ErrMalformed, err)
		}
		text = buf.String()
	}

	clean, err := Sanitize(text)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(clean) == "" {
		return nil, fmt.Errorf("%w: summary empty after sanitizing", extract.ErrShape)
	}
	return clean, nil
}

func looksLikeHTML(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "<") && strings.Contains(t, ">")
}

// Sanitize parses fragment as HTML body content, drops active content
// (scripts, styles, frames, forms), event handler attributes and javascript:
// URLs, and renders what remains.
func Sanitize(fragment string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %v", extract.ErrMalformed, err)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if !clean(n) {
			continue
		}
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

// clean strips unsafe parts of n in place and reports whether n itself
// should be kept.
func clean(n *html.Node) bool {
	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return false
	case html.ElementNode:
		if droppedElements[n.DataAtom] {
			return false
		}
		n.Attr = safeAttrs(n.Attr)
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if !clean(c) {
			n.RemoveChild(c)
		}
		c = next
	}
	return true
}

func safeAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			continue
		}
		if key == "href" || key == "src" || key == "action" || key == "formaction" {
			scheme := strings.ToLower(strings.Join(strings.Fields(a.Val), ""))
			if strings.HasPrefix(scheme, "javascript:") || strings.HasPrefix(scheme, "vbscript:") ||
				strings.HasPrefix(scheme, "data:text/html") {
				continue
			}
		}
		kept = append(kept, a)
	}
	return kept
}

package template

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// ToPlainText normalizes rendered markup to plain status text. A fixed
// allow-list of structural tags survives as text shape: line breaks
// become newlines, links become "text (url)" (or bare text when
// includeLinkURLs is false), list items become hyphen-prefixed lines.
// Script and style subtrees are discarded, entities are decoded by the
// parser, repeated whitespace collapses, and the result is trimmed.
func ToPlainText(s string, includeLinkURLs bool) string {
	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	for _, n := range nodes {
		walk(&b, n, includeLinkURLs)
	}

	out := b.String()
	out = spaceRun.ReplaceAllString(out, " ")
	// Strip spaces hugging line breaks before collapsing blank lines.
	out = regexp.MustCompile(` ?\n ?`).ReplaceAllString(out, "\n")
	out = newlineRun.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func walk(b *strings.Builder, n *html.Node, includeLinkURLs bool) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style:
			return
		case atom.Br:
			b.WriteByte('\n')
			return
		case atom.A:
			text := collectText(n)
			if text == "" {
				return
			}
			if href := attr(n, "href"); includeLinkURLs && href != "" {
				b.WriteString(text + " (" + href + ")")
			} else {
				b.WriteString(text)
			}
			return
		case atom.Li:
			b.WriteString("\n- ")
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(b, c, includeLinkURLs)
			}
			return
		case atom.P, atom.Div, atom.Ul, atom.Ol, atom.Blockquote,
			atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			b.WriteByte('\n')
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(b, c, includeLinkURLs)
			}
			b.WriteByte('\n')
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(b, c, includeLinkURLs)
	}
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return strings.TrimSpace(b.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

package feed

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// firstImageSrc returns the src of the first remote <img> in an HTML
// fragment. Giveaway feeds often carry the cover art only in the body.
func firstImageSrc(fragment string) string {
	if !strings.Contains(strings.ToLower(fragment), "<img") {
		return ""
	}
	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return ""
	}
	for _, n := range nodes {
		if src := findImage(n); src != "" {
			return src
		}
	}
	return ""
}

func findImage(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		src := attrValue(n, "src")
		if src == "" {
			// lazy-loading markup
			src = attrValue(n, "data-src")
		}
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			return src
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if src := findImage(c); src != "" {
			return src
		}
	}
	return ""
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

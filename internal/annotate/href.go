package annotate

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// parseHref parses an href the way browsers do before resolution: leading and
// trailing C0 controls and spaces are trimmed, tab/LF/CR are removed anywhere,
// and stray '%' signs and remaining control bytes are percent-encoded. Only
// hrefs that still fail url.Parse are reported as errors.
func parseHref(href string) (*url.URL, error) {
	href = strings.TrimFunc(href, func(r rune) bool { return r <= 0x20 })

	var b strings.Builder
	b.Grow(len(href))
	for i := 0; i < len(href); i++ {
		c := href[i]
		switch {
		case c == '\t' || c == '\n' || c == '\r':
			continue
		case c == '%' && !(i+2 < len(href) && isHex(href[i+1]) && isHex(href[i+2])):
			b.WriteString("%25")
		case c < 0x20 || c == 0x7f:
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0f])
		default:
			b.WriteByte(c)
		}
	}
	return url.Parse(b.String())
}

const hexDigits = "0123456789ABCDEF"

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// documentBase returns the URL relative hrefs resolve against: the first
// base element with an href, resolved against pageURL, or pageURL itself.
func documentBase(doc *html.Node, pageURL *url.URL) *url.URL {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "base" {
			if _, ok := getAttr(n, "href"); ok {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if found == nil {
		return pageURL
	}
	href, _ := getAttr(found, "href")
	ref, err := parseHref(href)
	if err != nil {
		return pageURL
	}
	return pageURL.ResolveReference(ref)
}

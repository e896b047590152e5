package annotate

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const docsPage = "https://ramppdev.github.io/ablate/index.html"

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func parse(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + body + "</body></html>"))
	require.NoError(t, err)
	return doc
}

// anchors returns every <a> element in document order.
func anchors(doc *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	return getAttr(n, key)
}

func TestAnnotateExternalLinksScenarios(t *testing.T) {
	tests := []struct {
		name     string
		anchor   string
		external bool
	}{
		{"docs path is internal", `<a class="reference external" href="/ablate/guide">x</a>`, false},
		{"other host is external", `<a class="external" href="https://example.com/docs">x</a>`, true},
		{"same host outside docs is external", `<a class="external" href="/other-page">x</a>`, true},
		{"fragment stays on the page", `<a class="external" href="#section">x</a>`, false},
		{"relative sibling page", `<a class="external" href="api.html">x</a>`, false},
		{"parent escape leaves docs", `<a class="external" href="../blog/">x</a>`, true},
		{"host compared case-insensitively", `<a class="external" href="https://RamppDev.GitHub.io/ablate/">x</a>`, false},
		{"port is ignored", `<a class="external" href="https://ramppdev.github.io:443/ablate/x">x</a>`, false},
		{"prefix match is textual", `<a class="external" href="https://ramppdev.github.io/ablate-old/">x</a>`, false},
		{"host root is external", `<a class="external" href="https://ramppdev.github.io">x</a>`, true},
		{"subdomain is external", `<a class="external" href="https://docs.ramppdev.github.io/ablate/">x</a>`, true},
		{"mailto is external", `<a class="external" href="mailto:team@example.com">x</a>`, true},
		{"empty href is the page itself", `<a class="external" href="">x</a>`, false},
		{"missing href is the origin root", `<a class="external">x</a>`, true},
		{"trailing percent", `<a class="external" href="https://example.com/100%">x</a>`, true},
		{"invalid percent escape", `<a class="external" href="https://example.com/a%zzb">x</a>`, true},
		{"percent in fragment", `<a class="external" href="https://example.com/docs#50%">x</a>`, true},
		{"newline inside href", "<a class=\"external\" href=\"https://example.com/a\nb\">x</a>", true},
		{"surrounding whitespace", "<a class=\"external\" href=\" \t/ablate/api.html\n \">x</a>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.anchor)
			res := AnnotateExternalLinks(doc, mustURL(t, docsPage))

			a := anchors(doc)[0]
			target, hasTarget := attr(a, "target")
			rel, hasRel := attr(a, "rel")
			assert.Equal(t, 1, res.Matched)
			if tt.external {
				assert.Equal(t, 1, res.Annotated)
				assert.Equal(t, TargetValue, target)
				assert.Equal(t, RelValue, rel)
			} else {
				assert.Equal(t, 1, res.Internal)
				assert.False(t, hasTarget)
				assert.False(t, hasRel)
			}
		})
	}
}

func TestUnmarkedAnchorsAreNotInspected(t *testing.T) {
	doc := parse(t, `<a href="https://example.com">x</a><a class="externally" href="https://example.com">y</a>`)

	res := AnnotateExternalLinks(doc, mustURL(t, docsPage))

	assert.Zero(t, res.Matched)
	for _, a := range anchors(doc) {
		_, ok := attr(a, "target")
		assert.False(t, ok)
	}
}

func TestInternalAnchorKeepsExistingAttributes(t *testing.T) {
	doc := parse(t, `<a class="external" href="/ablate/x" target="frame" rel="next">x</a>`)

	AnnotateExternalLinks(doc, mustURL(t, docsPage))

	a := anchors(doc)[0]
	target, _ := attr(a, "target")
	rel, _ := attr(a, "rel")
	assert.Equal(t, "frame", target)
	assert.Equal(t, "next", rel)
}

func TestExternalAnchorOverwritesExistingAttributes(t *testing.T) {
	doc := parse(t, `<a class="external" href="https://example.com" target="_self" rel="nofollow">x</a>`)

	res := AnnotateExternalLinks(doc, mustURL(t, docsPage))

	a := anchors(doc)[0]
	target, _ := attr(a, "target")
	rel, _ := attr(a, "rel")
	assert.Equal(t, TargetValue, target)
	assert.Equal(t, RelValue, rel, "rel must be replaced, not merged")
	assert.Equal(t, 1, res.Changed)
}

func TestAnnotateIsIdempotent(t *testing.T) {
	body := `<p><a class="external" href="https://example.com">a</a>
<a class="external" href="/ablate/">b</a>
<a class="external" href="/elsewhere" rel="x">c</a></p>`
	once := parse(t, body)
	twice := parse(t, body)

	first := AnnotateExternalLinks(once, mustURL(t, docsPage))
	AnnotateExternalLinks(twice, mustURL(t, docsPage))
	second := AnnotateExternalLinks(twice, mustURL(t, docsPage))

	var a, b strings.Builder
	require.NoError(t, html.Render(&a, once))
	require.NoError(t, html.Render(&b, twice))
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, 2, first.Changed)
	assert.Equal(t, 2, second.Annotated)
	assert.Zero(t, second.Changed, "second pass must not report changes")
}

func TestHrefParsing(t *testing.T) {
	tests := []struct {
		name    string
		href    string
		skipped bool
	}{
		{"unclosed IPv6 host", "http://[::1", true},
		{"space in host", "https://exa mple.com/", true},
		{"bad port", "https://example.com:port/", true},
		{"stray percent", "https://example.com/100%", false},
		{"non-hex escape", "https://example.com/%g1", false},
		{"tab inside scheme", "ht\ttps://example.com/", false},
		{"control byte in path", "https://example.com/a\x01b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &html.Node{Type: html.ElementNode, Data: "a", Attr: []html.Attribute{
				{Key: "class", Val: "external"}, {Key: "href", Val: tt.href},
			}}
			doc := &html.Node{Type: html.DocumentNode}
			doc.AppendChild(n)

			res := AnnotateExternalLinks(doc, mustURL(t, docsPage))

			_, hasTarget := attr(n, "target")
			if tt.skipped {
				assert.Equal(t, 1, res.Skipped)
				assert.False(t, hasTarget)
			} else {
				assert.Equal(t, 1, res.Annotated)
				assert.True(t, hasTarget)
			}
		})
	}
}

func TestSkippedHrefDoesNotStopTheWalk(t *testing.T) {
	doc := parse(t, `<a class="external" href="http://[::1">x</a><a class="external" href="https://example.com">ok</a>`)

	res := AnnotateExternalLinks(doc, mustURL(t, docsPage))

	as := anchors(doc)
	_, ok := attr(as[0], "target")
	assert.False(t, ok)
	_, ok = attr(as[1], "target")
	assert.True(t, ok)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Annotated)
}

func TestBaseElementChangesResolution(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><head><base href="https://mirror.example.org/ablate/"></head><body>
<a class="external" href="api.html">api</a>
<a class="external" href="https://ramppdev.github.io/ablate/x.html">abs</a>
</body></html>`))
	require.NoError(t, err)

	res := AnnotateExternalLinks(doc, mustURL(t, docsPage))

	require.Len(t, res.Decisions, 2)
	assert.Equal(t, "https://mirror.example.org/ablate/api.html", res.Decisions[0].Resolved)
	assert.Equal(t, External, res.Decisions[0].Classification)
	assert.Equal(t, Internal, res.Decisions[1].Classification)
}

func TestRelativeBaseElement(t *testing.T) {
	doc := parse(t, `<base href="../blog/"><a class="external" href="post.html">p</a>`)

	res := AnnotateExternalLinks(doc, mustURL(t, docsPage))

	require.Len(t, res.Decisions, 1)
	assert.Equal(t, "https://ramppdev.github.io/blog/post.html", res.Decisions[0].Resolved)
	assert.Equal(t, 1, res.Annotated)
}

func TestClassTokensSplitOnASCIIWhitespace(t *testing.T) {
	doc := parse(t, "<a class=\"reference\u00a0external\" href=\"https://example.com\">nbsp</a>"+
		"<a class=\"reference\fexternal\" href=\"https://example.com\">ff</a>")

	res := AnnotateExternalLinks(doc, mustURL(t, docsPage))

	as := anchors(doc)
	_, ok := attr(as[0], "target")
	assert.False(t, ok, "no-break space does not separate class tokens")
	_, ok = attr(as[1], "target")
	assert.True(t, ok)
	assert.Equal(t, 1, res.Matched)
}

func TestDecisionsFollowDocumentOrder(t *testing.T) {
	doc := parse(t, `<a class="external" href="https://a.example">a</a><div><a class="external" href="/ablate/b">b</a></div><a class="external" href="https://c.example">c</a>`)

	res := AnnotateExternalLinks(doc, mustURL(t, docsPage))

	require.Len(t, res.Decisions, 3)
	assert.Equal(t, "https://a.example", res.Decisions[0].Href)
	assert.Equal(t, Internal, res.Decisions[1].Classification)
	assert.Equal(t, "https://ramppdev.github.io/ablate/b", res.Decisions[1].Resolved)
	assert.Equal(t, External, res.Decisions[2].Classification)
}

func TestCustomRulesAndMarker(t *testing.T) {
	a := New(
		WithRules(Rule{Host: "docs.example.org", PathPrefix: "/v2"}, Rule{Host: "example.org", PathPrefix: "/"}),
		WithMarkerClass("ext"),
	)
	doc := parse(t, `<a class="ext" href="https://docs.example.org/v2/x">1</a><a class="ext" href="https://docs.example.org/v1/x">2</a><a class="ext" href="https://example.org/blog">3</a><a class="external" href="https://other.net">4</a>`)

	res := a.Annotate(doc, mustURL(t, "https://docs.example.org/v2/"))

	assert.Equal(t, 3, res.Matched)
	assert.Equal(t, 2, res.Internal)
	assert.Equal(t, 1, res.Annotated)
	assert.Len(t, a.Rules(), 2)
}

func TestSetAttrCollapsesDuplicates(t *testing.T) {
	n := &html.Node{Type: html.ElementNode, Data: "a", Attr: []html.Attribute{
		{Key: "rel", Val: "a"}, {Key: "href", Val: "x"}, {Key: "rel", Val: "b"},
	}}

	assert.True(t, setAttr(n, "rel", RelValue))
	assert.Equal(t, []html.Attribute{{Key: "rel", Val: RelValue}, {Key: "href", Val: "x"}}, n.Attr)
	assert.False(t, setAttr(n, "rel", RelValue))
}

func TestRuleMatches(t *testing.T) {
	assert.True(t, DefaultRule.Matches(mustURL(t, "https://ramppdev.github.io/ablate")))
	assert.False(t, DefaultRule.Matches(mustURL(t, "https://ramppdev.github.io/")))
	assert.False(t, DefaultRule.Matches(nil))
	assert.Equal(t, External, Classify(mustURL(t, "https://example.com"), nil))
}

// Package annotate marks external documentation links so they open in a new
// browsing context without an opener reference or referrer.
package annotate

import (
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ramppdev/extlinks/internal/logfields"
)

const (
	// DefaultMarkerClass selects the anchors the annotator inspects.
	DefaultMarkerClass = "external"

	TargetValue = "_blank"
	RelValue    = "noopener noreferrer"
)

// Decision records what happened to one marked anchor.
type Decision struct {
	Href           string
	Resolved       string
	Classification Classification

	// Changed is false for external anchors that already carried both attributes.
	Changed bool
}

// Result summarizes one pass over a document.
type Result struct {
	Matched   int
	Annotated int
	Internal  int
	Skipped   int

	// Changed counts annotated anchors whose attributes actually differed.
	Changed   int
	Decisions []Decision
}

// Annotator applies the external link rules to parsed HTML documents.
type Annotator struct {
	rules       []Rule
	markerClass string
	logger      *slog.Logger
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithRules replaces the internal rules. An empty list keeps the defaults.
func WithRules(rules ...Rule) Option {
	return func(a *Annotator) {
		if len(rules) > 0 {
			a.rules = append([]Rule(nil), rules...)
		}
	}
}

// WithMarkerClass changes the class token anchors must carry.
func WithMarkerClass(class string) Option {
	return func(a *Annotator) {
		if class != "" {
			a.markerClass = class
		}
	}
}

// WithLogger sets the logger used for per-anchor debug output.
func WithLogger(l *slog.Logger) Option {
	return func(a *Annotator) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Annotator with the default rule and marker class.
func New(opts ...Option) *Annotator {
	a := &Annotator{
		rules:       []Rule{DefaultRule},
		markerClass: DefaultMarkerClass,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Rules returns a copy of the configured internal rules.
func (a *Annotator) Rules() []Rule {
	return append([]Rule(nil), a.rules...)
}

// AnnotateExternalLinks runs the default Annotator over doc.
func AnnotateExternalLinks(doc *html.Node, pageURL *url.URL) Result {
	return New().Annotate(doc, pageURL)
}

// Annotate visits every marked anchor under doc in document order. Hrefs are
// resolved against the document base (a <base href> if present, else
// pageURL); anchors whose href cannot be parsed are skipped without
// modification.
func (a *Annotator) Annotate(doc *html.Node, pageURL *url.URL) Result {
	var res Result
	if doc == nil {
		return res
	}
	if pageURL == nil {
		pageURL = &url.URL{}
	}
	base := documentBase(doc, pageURL)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, a.markerClass) {
			res.Matched++
			a.annotateAnchor(n, pageURL, base, &res)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return res
}

func (a *Annotator) annotateAnchor(n *html.Node, pageURL, base *url.URL, res *Result) {
	var resolved *url.URL
	href, ok := getAttr(n, "href")
	if !ok {
		// A missing href reads as "" in the DOM, which resolves to the origin root.
		resolved = &url.URL{Scheme: pageURL.Scheme, Host: pageURL.Host, Path: "/"}
	} else if ref, err := parseHref(href); err == nil {
		resolved = base.ResolveReference(ref)
	} else {
		a.logger.Debug("Skipping unparseable href", logfields.Href(href), logfields.Error(err))
		res.Skipped++
		res.Decisions = append(res.Decisions, Decision{Href: href, Classification: Skipped})
		return
	}

	d := Decision{
		Href:           href,
		Resolved:       resolved.String(),
		Classification: Classify(resolved, a.rules),
	}
	if d.Classification == Internal {
		res.Internal++
		res.Decisions = append(res.Decisions, d)
		return
	}

	changedTarget := setAttr(n, "target", TargetValue)
	changedRel := setAttr(n, "rel", RelValue)
	d.Changed = changedTarget || changedRel
	res.Annotated++
	if d.Changed {
		res.Changed++
	}
	res.Decisions = append(res.Decisions, d)
	a.logger.Debug("Annotated external link", logfields.Href(href), logfields.Resolved(d.Resolved))
}

func hasClass(n *html.Node, class string) bool {
	v, ok := getAttr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.FieldsFunc(v, isASCIISpace) {
		if c == class {
			return true
		}
	}
	return false
}

// isASCIISpace matches the HTML class token separators.
func isASCIISpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\f' || r == '\r'
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// setAttr overwrites key in place, or appends it when absent. Duplicate
// attributes of the same name are collapsed to the first.
func setAttr(n *html.Node, key, val string) bool {
	changed := false
	found := false
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			if found {
				changed = true
				continue
			}
			found = true
			if attr.Val != val {
				attr.Val = val
				changed = true
			}
		}
		kept = append(kept, attr)
	}
	n.Attr = kept
	if !found {
		n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
		changed = true
	}
	return changed
}

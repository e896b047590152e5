// Package mdlinks tags absolute markdown links with the "external" marker
// class when rendering, matching the classes Sphinx puts on reST references.
package mdlinks

import (
	"io"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/ramppdev/extlinks/internal/annotate"
	"github.com/ramppdev/extlinks/internal/foundation/errors"
)

// ExternalClass is the class attribute placed on absolute links.
const ExternalClass = "reference " + annotate.DefaultMarkerClass

// InternalClass is the class attribute placed on relative links.
const InternalClass = "reference internal"

type transformer struct{}

func (transformer) Transform(doc *gmast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			node.SetAttributeString("class", []byte(classFor(string(node.Destination))))
		case *gmast.AutoLink:
			if node.AutoLinkType == gmast.AutoLinkURL {
				node.SetAttributeString("class", []byte(classFor(string(node.URL(source)))))
			}
		}
		return gmast.WalkContinue, nil
	})
}

// classFor returns the class for a link destination. Destinations that do
// not parse are treated as internal.
func classFor(dest string) string {
	u, err := url.Parse(strings.TrimSpace(dest))
	if err != nil || u.Scheme == "" {
		return InternalClass
	}
	return ExternalClass
}

type extender struct{}

// Extension adds the link class transformer to a goldmark instance.
var Extension goldmark.Extender = extender{}

func (extender) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(util.Prioritized(transformer{}, 500)))
}

// Render converts markdown to HTML with link classes applied.
func Render(src []byte, w io.Writer) error {
	md := goldmark.New(goldmark.WithExtensions(Extension))
	if err := md.Convert(src, w); err != nil {
		return errors.WrapError(err, errors.CategoryRender, "failed to render markdown").Build()
	}
	return nil
}

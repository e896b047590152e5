package annotate

import (
	"net/url"
	"strings"
)

// Rule marks a host and path prefix as part of the site's own documentation.
type Rule struct {
	Host       string
	PathPrefix string
}

// DefaultRule is the documentation site the annotator treats as internal.
var DefaultRule = Rule{Host: "ramppdev.github.io", PathPrefix: "/ablate"}

// Matches reports whether u falls under the rule. Hostnames compare
// case-insensitively without the port; the path is compared in escaped form.
func (r Rule) Matches(u *url.URL) bool {
	if u == nil {
		return false
	}
	if !strings.EqualFold(u.Hostname(), r.Host) {
		return false
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return strings.HasPrefix(path, r.PathPrefix)
}

// Classification is the outcome for a single anchor.
type Classification string

const (
	Internal Classification = "internal"
	External Classification = "external"
	Skipped  Classification = "skipped"
)

// Classify returns Internal when any rule matches u, External otherwise.
func Classify(u *url.URL, rules []Rule) Classification {
	for _, r := range rules {
		if r.Matches(u) {
			return Internal
		}
	}
	return External
}

package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyPageURL    = "page_url"
	KeyHref       = "href"
	KeyResolved   = "resolved"
	KeyAnnotated  = "annotated"
	KeySkipped    = "skipped"
	KeyDurationMS = "duration_ms"
	KeyRoot       = "root"
	KeyError      = "error"
)

func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func PageURL(u string) slog.Attr      { return slog.String(KeyPageURL, u) }
func Href(h string) slog.Attr         { return slog.String(KeyHref, h) }
func Resolved(u string) slog.Attr     { return slog.String(KeyResolved, u) }
func Annotated(n int) slog.Attr       { return slog.Int(KeyAnnotated, n) }
func Skipped(n int) slog.Attr         { return slog.Int(KeySkipped, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Root(dir string) slog.Attr       { return slog.String(KeyRoot, dir) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

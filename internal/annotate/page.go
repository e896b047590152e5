package annotate

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/net/html"

	"github.com/ramppdev/extlinks/internal/foundation/errors"
)

// Page is a parsed HTML document together with the URL it is served at.
type Page struct {
	URL    *url.URL
	Doc    *html.Node
	Result Result
}

// AnnotateReader parses r and annotates the resulting document.
func (a *Annotator) AnnotateReader(r io.Reader, pageURL *url.URL) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "failed to parse HTML").Build()
	}
	return &Page{URL: pageURL, Doc: doc, Result: a.Annotate(doc, pageURL)}, nil
}

// Render writes the annotated document to w.
func (p *Page) Render(w io.Writer) error {
	if err := html.Render(w, p.Doc); err != nil {
		return errors.WrapError(err, errors.CategoryRender, "failed to render HTML").Build()
	}
	return nil
}

// FileResult reports the outcome of annotating one file on disk.
type FileResult struct {
	Result
	Written bool
}

// AnnotateFile annotates the page stored at path. The file is rewritten only
// when an anchor actually changed and dryRun is false, so running it over an
// already annotated file leaves the file untouched.
func (a *Annotator) AnnotateFile(path string, pageURL *url.URL, dryRun bool) (FileResult, error) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return FileResult{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to stat page").
			WithContext("path", path).Build()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return FileResult{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to read page").
			WithContext("path", path).Build()
	}

	page, err := a.AnnotateReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return FileResult{}, err
	}
	res := FileResult{Result: page.Result}
	if dryRun || page.Result.Changed == 0 {
		return res, nil
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return res, err
	}
	if err := writeFileAtomic(path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return res, errors.WrapError(err, errors.CategoryFileSystem, "failed to write page").
			WithContext("path", path).Build()
	}
	res.Written = true
	return res, nil
}

// writeFileAtomic replaces path through a temporary file in the same directory.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".extlinks-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

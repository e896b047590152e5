package annotate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramppdev/extlinks/internal/foundation/errors"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>ablate</title></head>
<body>
<a class="reference external" href="https://github.com/ramppdev/ablate">GitHub</a>
<a class="reference internal" href="api.html">API</a>
<a class="reference external" href="https://ramppdev.github.io/ablate/quickstart.html">Quickstart</a>
</body></html>`

func writePage(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

func TestAnnotateReaderRender(t *testing.T) {
	page, err := New().AnnotateReader(strings.NewReader(samplePage), mustURL(t, docsPage))
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, page.Render(&out))

	assert.Equal(t, 2, page.Result.Matched)
	assert.Equal(t, 1, page.Result.Annotated)
	assert.Contains(t, out.String(), `href="https://github.com/ramppdev/ablate" target="_blank" rel="noopener noreferrer"`)
	assert.Contains(t, out.String(), `<a class="reference external" href="https://ramppdev.github.io/ablate/quickstart.html">`)
}

func TestAnnotateFileWritesChanges(t *testing.T) {
	path := writePage(t, t.TempDir(), "index.html", samplePage)

	res, err := New().AnnotateFile(path, mustURL(t, docsPage), false)
	require.NoError(t, err)
	assert.True(t, res.Written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `rel="noopener noreferrer"`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestAnnotateFileLeavesUnchangedFilesAlone(t *testing.T) {
	dir := t.TempDir()
	path := writePage(t, dir, "index.html", samplePage)

	_, err := New().AnnotateFile(path, mustURL(t, docsPage), false)
	require.NoError(t, err)
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, old, old))

	res, err := New().AnnotateFile(path, mustURL(t, docsPage), false)
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.Equal(t, 1, res.Annotated)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "already annotated page must not be rewritten")
}

func TestAnnotateFileDryRun(t *testing.T) {
	path := writePage(t, t.TempDir(), "index.html", samplePage)

	res, err := New().AnnotateFile(path, mustURL(t, docsPage), true)
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.Equal(t, 1, res.Changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, samplePage, string(data))
}

func TestAnnotateFileMissing(t *testing.T) {
	_, err := New().AnnotateFile(filepath.Join(t.TempDir(), "nope.html"), mustURL(t, docsPage), false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

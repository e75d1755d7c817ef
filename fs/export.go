// Package fs exports cached catalog pages as markdown files.
package fs

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/catalogqa"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// PagePath converts a catalog page URL to a relative file path.
// Query parameters are part of a catalog page's identity, so they are
// folded into the file name in sorted order.
// Example: https://catalog.example.edu/preview_program.php?poid=1 → preview_program_poid-1.md
func PagePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", catalogqa.Errorf(catalogqa.EINVALID, "invalid page URL: %s", rawURL)
	}

	p := strings.TrimPrefix(u.Path, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index"
	}
	dir, file := path.Split(strings.TrimSuffix(p, path.Ext(p)))
	dir = strings.TrimPrefix(path.Clean("/"+dir), "/")
	file = clean(file)

	if q := u.Query(); len(q) > 0 {
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			file += "_" + clean(k) + "-" + clean(strings.Join(q[k], ","))
		}
	}

	return path.Join(dir, file) + ".md", nil
}

func clean(s string) string {
	return unsafeChars.ReplaceAllString(s, "-")
}

// FormatPage formats a page with YAML frontmatter.
func FormatPage(page *catalogqa.PageContent, title string, exported time.Time) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(page.URL)
	b.WriteString("\ntitle: ")
	b.WriteString(title)
	b.WriteString("\nexported: ")
	b.WriteString(exported.Format("2006-01-02"))
	b.WriteString("\n---\n\n")
	b.WriteString(page.Content)
	b.WriteString("\n")
	return b.String()
}

// Exporter writes pages into a directory with atomic update semantics.
// Pages are saved to a temporary directory, then moved into place on Commit.
type Exporter struct {
	baseDir string
	name    string

	// Now returns the export date written to frontmatter.
	Now func() time.Time
}

// NewExporter creates a new Exporter.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewExporter(baseDir, name string) *Exporter {
	return &Exporter{
		baseDir: baseDir,
		name:    name,
		Now:     time.Now,
	}
}

func (e *Exporter) tempDir() string {
	return filepath.Join(e.baseDir, e.name+".tmp")
}

// Dir returns the directory pages end up in after Commit.
func (e *Exporter) Dir() string {
	return filepath.Join(e.baseDir, e.name)
}

// Save writes one page to the temporary directory.
func (e *Exporter) Save(ctx context.Context, page *catalogqa.PageContent, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	relPath, err := PagePath(page.URL)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(e.tempDir(), filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(FormatPage(page, title, e.Now())), 0644)
}

// Commit replaces the final directory with the saved pages.
func (e *Exporter) Commit() error {
	if err := os.RemoveAll(e.Dir()); err != nil {
		return err
	}
	return os.Rename(e.tempDir(), e.Dir())
}

// Abort discards the saved pages.
func (e *Exporter) Abort() error {
	return os.RemoveAll(e.tempDir())
}

package crawler

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNoSourceTree is returned when a crate has no src directory to walk.
var ErrNoSourceTree = errors.New("crate has no src directory")

// SourceFile is one Rust file inside a crate.
type SourceFile struct {
	Path    string // path as walked
	RelPath string // relative to the crate root, slash separated
	Content string
}

// Crawler walks a crate's src tree for Rust files.
type Crawler struct {
	ignored []string
}

// NewCrawler creates a new crawler instance.
func NewCrawler() *Crawler {
	return &Crawler{
		ignored: []string{".git", "target", "node_modules"},
	}
}

// SourceDir returns the directory a crate's sources live in.
func SourceDir(crateRoot string) string {
	return filepath.Join(crateRoot, "src")
}

// Walk visits every .rs file under <crateRoot>/src in lexical order. Files are streamed to
// onFile one at a time; an error from onFile stops the walk.
func (c *Crawler) Walk(crateRoot string, onFile func(SourceFile) error) error {
	src := SourceDir(crateRoot)
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNoSourceTree, "%s", crateRoot)
		}
		return errors.Wrapf(err, "stat %s", src)
	}
	if !info.IsDir() {
		return errors.Wrapf(ErrNoSourceTree, "%s is not a directory", src)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".rs") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		rel, err := filepath.Rel(crateRoot, path)
		if err != nil {
			rel = path
		}

		return onFile(SourceFile{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
			Content: string(content),
		})
	})
}

// Files collects every source file in one pass.
func (c *Crawler) Files(crateRoot string) ([]SourceFile, error) {
	var out []SourceFile
	err := c.Walk(crateRoot, func(f SourceFile) error {
		out = append(out, f)
		return nil
	})
	return out, err
}

package archive

import (
	"strings"

	"github.com/scratchminer/pdkit/pderr"
)

// Entry is a node in the archive's directory tree: either a directory
// (IsDir, ordered Children) or a file (FileEntry). This is the tagged
// union spec.md asks for in place of a dictionary whose values are
// sometimes maps and sometimes files.
type Entry struct {
	Name     string
	IsDir    bool
	Children []*Entry // ordered by first insertion; only meaningful when IsDir
	File     *FileEntry
}

func newDir(name string) *Entry {
	return &Entry{Name: name, IsDir: true}
}

// NewRoot builds an empty directory tree root, for callers (dispatch's
// directory walker) that build an Archive from loose files rather than
// from Parse.
func NewRoot() *Entry {
	return newDir("")
}

func (e *Entry) findChild(name string) *Entry {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// childDir returns the named child directory, creating it (or coercing an
// existing same-named node into one) if absent.
func (e *Entry) childDir(name string) *Entry {
	if c := e.findChild(name); c != nil {
		if !c.IsDir {
			c.IsDir = true
			c.File = nil
		}
		return c
	}
	nd := newDir(name)
	e.Children = append(e.Children, nd)
	return nd
}

// insert places fe at the given slash-separated path, creating
// intermediate directories on demand. A pre-existing file at the same leaf
// path is silently overwritten in place, preserving its first-seen
// position.
func (e *Entry) insert(path string, fe *FileEntry) {
	parts := strings.Split(path, "/")
	cur := e
	for _, p := range parts[:len(parts)-1] {
		cur = cur.childDir(p)
	}
	leaf := parts[len(parts)-1]
	if existing := cur.findChild(leaf); existing != nil {
		existing.IsDir = false
		existing.Children = nil
		existing.File = fe
		return
	}
	cur.Children = append(cur.Children, &Entry{Name: leaf, File: fe})
}

// Lookup resolves a slash-separated path to its file entry.
func (e *Entry) Lookup(path string) (*FileEntry, error) {
	parts := strings.Split(path, "/")
	cur := e
	for i, p := range parts {
		child := cur.findChild(p)
		if child == nil {
			return nil, pderr.Newf(pderr.KindNotFound, "PDZ", "lookup", -1, "no entry at %q", path)
		}
		if i == len(parts)-1 {
			if child.IsDir {
				return nil, pderr.Newf(pderr.KindNotFound, "PDZ", "lookup", -1, "%q is a directory", path)
			}
			return child.File, nil
		}
		if !child.IsDir {
			return nil, pderr.Newf(pderr.KindNotFound, "PDZ", "lookup", -1, "%q is not a directory", strings.Join(parts[:i+1], "/"))
		}
		cur = child
	}
	return nil, pderr.Newf(pderr.KindNotFound, "PDZ", "lookup", -1, "empty path")
}

// Walk visits every file entry in the tree in first-seen order, depth
// first, passing each one's full slash-separated path.
func (e *Entry) Walk(fn func(path string, fe *FileEntry)) {
	e.walk("", fn)
}

func (e *Entry) walk(prefix string, fn func(path string, fe *FileEntry)) {
	for _, c := range e.Children {
		path := c.Name
		if prefix != "" {
			path = prefix + "/" + c.Name
		}
		if c.IsDir {
			c.walk(path, fn)
		} else {
			fn(path, c.File)
		}
	}
}

// Package resolve maps the Windows-style resource paths stored inside
// ZON and ZSC files to files on disk. Game archives reference textures
// relative to a 3DDATA directory with inconsistent casing, so lookups
// go through a case-insensitive index of the extracted tree.
package resolve

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// maxRootDepth bounds the upward walk when locating the data root.
const maxRootDepth = 10

// DefaultExtensions are tried in order when a referenced texture file
// exists under a different extension than the one recorded in the ZON.
var DefaultExtensions = []string{".DDS", ".PNG"}

// FindDataRoot walks up from the given file until it reaches a
// directory named 3DDATA, in any casing.
func FindDataRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve data root: %w", err)
	}
	dir := filepath.Dir(abs)
	for depth := 0; depth < maxRootDepth; depth++ {
		if strings.EqualFold(filepath.Base(dir), "3DDATA") {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("no 3DDATA directory above %s", path)
}

// Resolver resolves resource references against one data root. It is
// safe for concurrent use; the file index is built on first lookup.
type Resolver struct {
	root       string
	extensions []string

	mu      sync.Mutex
	cache   map[string]string
	index   map[string]string // lowercased relative path -> absolute path
	byName  map[string]string // lowercased base name -> absolute path
	indexed bool
}

// New returns a resolver rooted at the given 3DDATA directory.
func New(root string, extensions []string) *Resolver {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Resolver{
		root:       root,
		extensions: extensions,
		cache:      make(map[string]string),
	}
}

// Root returns the data root directory.
func (r *Resolver) Root() string { return r.root }

// Texture resolves a resource reference to an existing file. The
// reference uses backslash separators and is relative to the data root.
// A miss returns an error wrapping fs.ErrNotExist.
func (r *Resolver) Texture(ref string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hit, ok := r.cache[ref]; ok {
		if hit == "" {
			return "", fmt.Errorf("texture %q: %w", ref, fs.ErrNotExist)
		}
		return hit, nil
	}

	resolved := r.lookup(ref)
	r.cache[ref] = resolved
	if resolved == "" {
		slog.Debug("texture not found", "ref", ref, "root", r.root)
		return "", fmt.Errorf("texture %q: %w", ref, fs.ErrNotExist)
	}
	return resolved, nil
}

func (r *Resolver) lookup(ref string) string {
	rel := filepath.FromSlash(strings.ReplaceAll(ref, `\`, "/"))

	// Exact path relative to the root or its parent, tried before the
	// index is built.
	for _, base := range []string{r.root, filepath.Dir(r.root)} {
		candidate := filepath.Join(base, rel)
		if fileExists(candidate) {
			return candidate
		}
	}

	r.buildIndex()

	key := strings.ToLower(filepath.ToSlash(rel))
	if hit, ok := r.index[key]; ok {
		return hit
	}
	if hit := r.lookupWithExtensions(key); hit != "" {
		return hit
	}

	// Fall back to the base name alone; archives frequently reference
	// textures through stale directory prefixes.
	name := strings.ToLower(filepath.Base(rel))
	if hit, ok := r.byName[name]; ok {
		return hit
	}
	return r.lookupWithExtensions(name)
}

// lookupWithExtensions retries the lowercased key with each configured
// extension in place of the recorded one.
func (r *Resolver) lookupWithExtensions(key string) string {
	stem := strings.TrimSuffix(key, filepath.Ext(key))
	for _, ext := range r.extensions {
		alt := stem + strings.ToLower(ext)
		if alt == key {
			continue
		}
		if hit, ok := r.index[alt]; ok {
			return hit
		}
		if hit, ok := r.byName[alt]; ok {
			return hit
		}
	}
	return ""
}

// buildIndex walks the data root once and records every file under a
// lowercased key. Later duplicates of a base name are ignored so the
// shallowest match wins.
func (r *Resolver) buildIndex() {
	if r.indexed {
		return
	}
	r.indexed = true
	r.index = make(map[string]string)
	r.byName = make(map[string]string)

	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return nil
		}
		key := strings.ToLower(filepath.ToSlash(rel))
		if _, ok := r.index[key]; !ok {
			r.index[key] = path
		}
		name := strings.ToLower(d.Name())
		if _, ok := r.byName[name]; !ok {
			r.byName[name] = path
		}
		return nil
	})
	if err != nil {
		slog.Debug("data root walk failed", "root", r.root, "error", err)
	}
	slog.Info("data root indexed", "root", r.root, "files", len(r.index))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

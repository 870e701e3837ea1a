// Package fixture holds the static HTML pages the browser journeys run against.
//
// The pages are embedded so the serve and smoke commands work from any directory. Tests use the copies on disk so
// that a journey opens the same file:// URL a person would open in a browser.
package fixture

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
)

// Demo is the login page the smoke journey runs against.
const Demo = "demo.html"

//go:embed *.html
var FS embed.FS

var ErrNotFound = errors.New("fixture not found")

// Names returns the names of the embedded fixtures in lexical order.
func Names() []string {
	names, err := NamesFS(FS)
	if err != nil {
		// Only possible with a malformed pattern.
		panic(err)
	}
	return names
}

// NamesFS returns the names of the fixtures at the root of fsys in lexical order.
func NamesFS(fsys fs.FS) ([]string, error) {
	matches, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Read returns the contents of the named embedded fixture. It returns an error wrapping ErrNotFound if there is no such
// fixture.
func Read(name string) ([]byte, error) {
	return ReadFS(FS, name)
}

// ReadFS is Read for the fixtures at the root of fsys.
func ReadFS(fsys fs.FS, name string) ([]byte, error) {
	if !fs.ValidPath(name) || path.Dir(name) != "." || path.Ext(name) != ".html" {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}

	buf, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return nil, err
	}

	return buf, nil
}

// Dir returns the directory of this package's source files. It is only meaningful when running from the source tree,
// which is always the case for tests.
func Dir() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Dir(filename)
}

// Path returns the on-disk path of the named fixture in the source tree.
func Path(name string) string {
	return filepath.Join(Dir(), name)
}

// FileURL returns the file:// URL for the file at p. Relative paths are resolved against the working directory.
func FileURL(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}

	_, err = os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%q: %w", p, ErrNotFound)
		}
		return "", err
	}

	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// DirURL returns the file:// URL of dir with a trailing slash so fixture names resolve against it.
func DirURL(dir string) (*url.URL, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", dir, err)
	}

	p := filepath.ToSlash(abs)
	if p[len(p)-1] != '/' {
		p += "/"
	}

	return &url.URL{Scheme: "file", Path: p}, nil
}

// Materialize writes every embedded fixture into dir, creating it if necessary. It is used when running outside the
// source tree where Dir does not point at real files.
func Materialize(dir string) error {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}

	for _, name := range Names() {
		buf, err := FS.ReadFile(name)
		if err != nil {
			return err
		}

		err = os.WriteFile(filepath.Join(dir, name), buf, 0o644)
		if err != nil {
			return fmt.Errorf("write fixture %q: %w", name, err)
		}
	}

	return nil
}

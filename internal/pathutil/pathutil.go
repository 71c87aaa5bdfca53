// Package pathutil provides file system path helpers: existence filtering
// for lazy path values and derivation of sibling file paths.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/checkgrid/internal/lazy"
)

// Exists reports whether path refers to an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ExistingFile returns a derived value that resolves to the base path only
// when it exists on disk at read time, and to unset otherwise. A missing
// file is a legitimate state, not an error, so downstream combinators simply
// see unset.
func ExistingFile(base *lazy.Value[string]) *lazy.Value[string] {
	return base.Filter(Exists)
}

// Sibling derives the path of a file placed next to base, named by applying
// rename to base's file name. The base is existence-filtered first; the
// parent directory is relativized against root and re-resolved so paths
// computed from differently-rooted inputs come out consistent.
func Sibling(root string, base *lazy.Value[string], rename func(name string) string) *lazy.Value[string] {
	return lazy.Map(ExistingFile(base), func(p string) string {
		parent := filepath.Dir(p)
		if rel, err := filepath.Rel(root, parent); err == nil && !strings.HasPrefix(rel, "..") {
			parent = filepath.Join(root, rel)
		}
		return filepath.Join(parent, rename(filepath.Base(p)))
	})
}

// CandidateName maps a file name to its review-candidate sibling name:
// "name.ext" becomes "name.new.ext", an extensionless "name" becomes
// "name.new".
func CandidateName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return stem + ".new" + ext
}

package amdil

import (
	"os"
	"path"
	"path/filepath"
	goruntime "runtime"

	"github.com/pkg/errors"

	"github.com/tetratelabs/amdil/internal/compilationcache"
	"github.com/tetratelabs/amdil/internal/version"
)

// CompilationCache persists compiled kernels so that compiling the same source for the same
// device again skips lowering.
//
// A cache may be shared by Compilers targeting different devices: the device and CAL version
// are part of every entry key.
//
// Note: The embedder must safeguard the directory from external changes.
type CompilationCache interface {
	// Dir returns the version-specific directory entries are stored in.
	Dir() string

	fileCache() compilationcache.Cache
}

// NewCompilationCacheWithDir returns a CompilationCache storing entries under dir.
//
// If the dirname doesn't exist, this creates it. Entries go into a subdirectory named after the
// running amdil version, so upgrading never reads entries written by another version.
//
// Usage:
//
//	cache, _ := amdil.NewCompilationCacheWithDir("/home/me/.cache/amdil")
//	c, _ := amdil.NewCompilerWithConfig(amdil.NewCompilerConfig().WithCompilationCache(cache))
func NewCompilationCacheWithDir(dir string) (CompilationCache, error) {
	return newCompilationCacheWithDir(dir, version.GetAmdilVersion())
}

func newCompilationCacheWithDir(dir, amdilVersion string) (*cache, error) {
	// Resolve a potentially relative directory into an absolute one.
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Ensure the user-supplied directory.
	if err = mkdir(dir); err != nil {
		return nil, err
	}

	// Create a version-specific directory to avoid conflicts.
	dirname := path.Join(dir, "amdil-"+amdilVersion+"-"+goruntime.GOARCH+"-"+goruntime.GOOS)
	if err = mkdir(dirname); err != nil {
		return nil, err
	}
	return &cache{dir: dirname, fc: compilationcache.NewFileCache(dirname)}, nil
}

// cache implements CompilationCache.
type cache struct {
	dir string
	fc  compilationcache.Cache
}

// Dir implements CompilationCache.Dir.
func (c *cache) Dir() string { return c.dir }

func (c *cache) fileCache() compilationcache.Cache { return c.fc }

func mkdir(dirname string) error {
	if st, err := os.Stat(dirname); errors.Is(err, os.ErrNotExist) {
		// If the directory not found, create the cache dir.
		if err = os.MkdirAll(dirname, 0o700); err != nil {
			return errors.Wrapf(err, "create directory %s", dirname)
		}
	} else if err != nil {
		return errors.WithStack(err)
	} else if !st.IsDir() {
		return errors.Errorf("%s is not dir", dirname)
	}
	return nil
}

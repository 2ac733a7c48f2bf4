package compilationcache

import (
	"encoding/hex"
	"io"
	"os"
	"path"
	"sync"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// NewFileCache returns a Cache storing one snappy compressed file per entry in dir. The
// directory is created on the first Add.
func NewFileCache(dir string) Cache {
	return newFileCache(dir)
}

func newFileCache(dir string) *fileCache {
	return &fileCache{dirPath: dir}
}

// fileCache writes and reads entries into and from fileCache.dirPath.
type fileCache struct {
	dirPath string
	// mux is read locked while an entry returned by Get is open.
	mux sync.RWMutex
}

type fileReadCloser struct {
	io.Reader
	file *os.File
	fc   *fileCache
}

func (f *fileReadCloser) Close() (err error) {
	defer f.fc.mux.RUnlock()
	return f.file.Close()
}

func (fc *fileCache) path(key Key) string {
	return path.Join(fc.dirPath, hex.EncodeToString(key[:]))
}

func (fc *fileCache) Get(key Key) (content io.ReadCloser, ok bool, err error) {
	fc.mux.RLock()
	unlock := fc.mux.RUnlock
	defer func() {
		if unlock != nil {
			unlock()
		}
	}()

	f, err := os.Open(fc.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Wrap(err, "fileCache")
	}
	// Released by fileReadCloser.Close.
	unlock = nil
	return &fileReadCloser{Reader: snappy.NewReader(f), file: f, fc: fc}, true, nil
}

func (fc *fileCache) Add(key Key, content io.Reader) (err error) {
	fc.mux.Lock()
	defer fc.mux.Unlock()

	if err = mkdir(fc.dirPath); err != nil {
		return
	}
	// Entries are renamed into place so a concurrent process never reads a partial file.
	tmp, err := os.CreateTemp(fc.dirPath, "tmp-*")
	if err != nil {
		return errors.Wrap(err, "fileCache")
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	w := snappy.NewBufferedWriter(tmp)
	if _, err = io.Copy(w, content); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "fileCache: writing entry")
	}
	if err = w.Close(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "fileCache: flushing entry")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "fileCache")
	}
	if err = os.Rename(tmp.Name(), fc.path(key)); err != nil {
		return errors.Wrap(err, "fileCache")
	}
	return nil
}

func (fc *fileCache) Delete(key Key) (err error) {
	fc.mux.Lock()
	defer fc.mux.Unlock()

	err = os.Remove(fc.path(key))
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	return
}

func mkdir(dirname string) error {
	if st, err := os.Stat(dirname); errors.Is(err, os.ErrNotExist) {
		// If the directory not found, create the cache dir.
		if err = os.MkdirAll(dirname, 0o700); err != nil {
			return errors.Wrapf(err, "fileCache: create directory %s", dirname)
		}
	} else if err != nil {
		return errors.Wrap(err, "fileCache")
	} else if !st.IsDir() {
		return errors.Errorf("fileCache: expected dir at %s", dirname)
	}
	return nil
}

// Package compilationcache persists compiled IL text across processes.
package compilationcache

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
)

// Cache stores the text of compiled kernels. Compiled results are also returned to the caller
// directly, so a cache only saves the cost of lowering the same source again.
//
// Since these methods are concurrently accessed, the implementations must be Goroutine-safe.
//
// See NewFileCache for the file implementation.
type Cache interface {
	// Get returns the content passed to Add for key. ok is false, with a nil err, if there is
	// no entry. The caller closes content.
	Get(key Key) (content io.ReadCloser, ok bool, err error)
	// Add stores content, which Get must later return unmodified.
	Add(key Key, content io.Reader) (err error)
	// Delete purges the entry of key, for example when it can no longer be decoded.
	Delete(key Key) (err error)
}

// Key represents the 256-bit unique identifier assigned to each cache content.
type Key = [sha256.Size]byte

// KeyOf returns the key of compiling source for a device with the given compiler version.
func KeyOf(compilerVersion, device string, calVersion uint32, source []byte) Key {
	h := sha256.New()
	var buf [8]byte
	// Each field is length prefixed so adjacent fields cannot run together.
	for _, field := range [][]byte{[]byte(compilerVersion), []byte(device), source} {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(field)))
		h.Write(buf[:])
		h.Write(field)
	}
	binary.LittleEndian.PutUint32(buf[:4], calVersion)
	h.Write(buf[:4])

	var ret Key
	h.Sum(ret[:0])
	return ret
}

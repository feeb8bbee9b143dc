// Package spool allocates request-body buffers. Small bodies live on the
// heap; large ones are backed by an anonymous temporary file mapped into
// memory, so a handful of slow uploads cannot pin gigabytes of RAM.
package spool

import (
	"os"
	"path/filepath"

	"github.com/dchest/uniuri"
	"github.com/lumen-web/lumen/internal/cleanup"
	"golang.org/x/sys/unix"
)

const fallbackDir = "/var/tmp"

// Alloc returns a writable buffer of exactly size bytes. Buffers at or past
// threshold are file-backed (when allowed); their unmapping is registered on
// the cleanup stack, so teardown releases them on every exit path.
func Alloc(size, threshold int64, allowFile bool, cleanups *cleanup.Stack) ([]byte, error) {
	if size < threshold {
		return make([]byte, size), nil
	}

	if !allowFile {
		return nil, unix.ENOMEM
	}

	fd, err := createTempFile()
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, size); err != nil {
		return nil, err
	}

	buf, err := mapFile(fd, int(size))
	if err != nil {
		return nil, err
	}

	cleanups.Defer(func() {
		_ = unix.Munmap(buf)
	})

	return buf, nil
}

// tempDir picks the first absolute path of TMPDIR, TMP and TEMP, then the
// platform default, then /var/tmp.
func tempDir() string {
	for _, env := range [...]string{"TMPDIR", "TMP", "TEMP"} {
		if dir := os.Getenv(env); filepath.IsAbs(dir) {
			return dir
		}
	}

	// os.TempDir echoes $TMPDIR verbatim, so re-check absoluteness
	if dir := os.TempDir(); filepath.IsAbs(dir) {
		return dir
	}

	return fallbackDir
}

// createTempFile opens an anonymous file: O_TMPFILE where the platform has
// it, otherwise a uniquely named file unlinked right after creation. Either
// way the file vanishes from the namespace before any data lands in it.
func createTempFile() (int, error) {
	dir := tempDir()

	if fd, err := openAnon(dir); err == nil {
		return fd, nil
	}

	name := filepath.Join(dir, "lumen"+uniuri.New())
	fd, err := unix.Open(name, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return -1, err
	}
	_ = os.Remove(name)

	return fd, nil
}

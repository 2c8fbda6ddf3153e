// Package fileid derives stable identifiers and content fingerprints with BLAKE3.
package fileid

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// BookPairKey returns a short stable namespace for a source/destination book directory pair.
// Paths are cleaned so trailing slashes and "." segments do not change the key.
func BookPairKey(srcDir, dstDir string) string {
	h := blake3.New()
	writeField(h, filepath.Clean(srcDir))
	writeField(h, filepath.Clean(dstDir))
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// Fingerprint hashes an ordered list of strings. Field boundaries are length-prefixed,
// so ["ab","c"] and ["a","bc"] differ.
func Fingerprint(parts ...string) string {
	h := blake3.New()
	for _, p := range parts {
		writeField(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FileFingerprint hashes the contents of the file at path.
func FileFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeField(w io.Writer, s string) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
	_, _ = w.Write(n[:])
	_, _ = io.WriteString(w, s)
}

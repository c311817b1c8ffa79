package testutil

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"testing"
)

// FileSHA1 returns the hex SHA-1 of the file at path, in the form stored
// as a photo checksum.
func FileSHA1(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		t.Fatalf("hashing %s: %v", path, err)
	}
	return hex.EncodeToString(h.Sum(nil))
}

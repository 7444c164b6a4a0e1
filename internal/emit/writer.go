package emit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint identifies a generated file's content.
type Fingerprint [blake2b.Size256]byte

func (f Fingerprint) String() string { return fmt.Sprintf("%x", f[:8]) }

// Sum fingerprints data.
func Sum(data []byte) Fingerprint { return blake2b.Sum256(data) }

// WriteFile writes data to path unless the file already holds the same
// content, so unchanged keymaps keep their modification time and do not
// trigger firmware rebuilds. Files are replaced atomically. The boolean
// reports whether the file was written.
func WriteFile(path string, data []byte) (bool, Fingerprint, error) {
	sum := Sum(data)
	old, err := os.ReadFile(path)
	switch {
	case err == nil && Sum(old) == sum:
		return false, sum, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, sum, fmt.Errorf("failed to read %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, sum, fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return false, sum, fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return false, sum, fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return false, sum, fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return false, sum, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, sum, fmt.Errorf("replace %s: %w", path, err)
	}
	return true, sum, nil
}

package tablebase

import (
	"os"
	"path/filepath"
)

// DefaultCacheDir returns the default directory for locally cached Syzygy files.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./syzygy"
	}
	return filepath.Join(home, ".chessforge", "syzygy")
}

package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// MountedSource reads secrets from files mounted into the container, one
// file per secret under a fixed root (e.g. /var/secrets/snowflake/password).
type MountedSource struct {
	dir string
}

// NewMountedSource creates a file-backed source rooted at dir.
func NewMountedSource(dir string) *MountedSource {
	return &MountedSource{dir: dir}
}

// Fetch implements Source by reading and decoding the mounted file.
func (s *MountedSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(name))
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &CredentialError{Name: name, Err: fmt.Errorf("mounted secret file %s: %w", path, ErrNotFound)}
		}
		return nil, &CredentialError{Name: name, Err: err}
	}
	return decode(name, raw)
}

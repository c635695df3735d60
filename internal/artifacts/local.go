package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps artifacts as files in a directory, one file per user.
// Saves write to a temporary file and rename it into place, so a crash
// mid-write never leaves a torn artifact behind.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if needed and returns a store over it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %q: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, userID string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	final := s.path(userID)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("save artifact: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save artifact: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save artifact: close: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save artifact: rename into place: %w", err)
	}
	return nil
}

func (s *LocalStore) Load(ctx context.Context, userID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{UserID: userID}
		}
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	return data, nil
}

// path maps a user ID to its artifact file. Separators in the ID are
// replaced so an email address cannot escape the store directory.
func (s *LocalStore) path(userID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(userID)
	return filepath.Join(s.dir, safe+"_pipeline.bin")
}

var _ Store = (*LocalStore)(nil)

package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/botmama/botmama/core/logger"
	"log/slog"
)

// DiskStore keeps photos as files under a root directory. References are
// paths relative to the root so they stay valid if the root moves.
type DiskStore struct {
	root string
}

// NewDiskStore ensures the root directory exists and returns the store.
func NewDiskStore(root string) (*DiskStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("media: empty root dir")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("media: create root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Store(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("media: create dir: %w", err)
	}

	// Write through a uniquely named temp file, then rename into place so a
	// crashed write never leaves a truncated photo behind.
	tmp := dst + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("media: write temp: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("media: commit: %w", err)
	}

	logger.Debug(ctx, "media", "media.store",
		slog.String("key", key),
		slog.Int("count", len(data)),
	)
	return key, nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("media: delete: %w", err)
	}
	return nil
}

func (s *DiskStore) Rename(ctx context.Context, oldKey, newKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src := filepath.Join(s.root, filepath.FromSlash(oldKey))
	dst := filepath.Join(s.root, filepath.FromSlash(newKey))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("media: create dir: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("media: rename: %w: %s", fs.ErrNotExist, oldKey)
		}
		return "", fmt.Errorf("media: rename: %w", err)
	}
	return newKey, nil
}

// Path resolves a reference back to an absolute file path for sending.
func (s *DiskStore) Path(ref string) string {
	return filepath.Join(s.root, filepath.FromSlash(ref))
}

func keyPath(ownerID int64, recipeName string) string {
	return strconv.FormatInt(ownerID, 10) + "/" + sanitizeName(recipeName) + ".jpg"
}

// sanitizeName keeps keys filesystem-safe. Every rune outside [A-Za-z0-9]
// is hex-escaped between underscores, so distinct names never share a key.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
			b.WriteString(strconv.FormatInt(int64(r), 16))
			b.WriteByte('_')
		}
	}
	return b.String()
}

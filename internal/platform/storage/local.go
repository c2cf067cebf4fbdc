package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore writes into a directory that the router serves statically.
type LocalStore struct {
	dir        string
	publicPath string
	log        *zap.Logger
}

func NewLocalStore(dir, publicPath string, log *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir %s: %w", dir, err)
	}
	return &LocalStore{
		dir:        dir,
		publicPath: "/" + strings.Trim(publicPath, "/"),
		log:        log,
	}, nil
}

func (s *LocalStore) Dir() string        { return s.dir }
func (s *LocalStore) PublicPath() string { return s.publicPath }

func (s *LocalStore) Save(ctx context.Context, data []byte, ext, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := objectName(ext)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}

	s.log.Debug("image stored", zap.String("name", name), zap.Int("bytes", len(data)))
	return path.Join(s.publicPath, name), nil
}

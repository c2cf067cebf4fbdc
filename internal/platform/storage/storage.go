// Package storage persists uploaded X-ray images and returns the URL under
// which they can be fetched again.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/config"
)

type Store interface {
	// Save writes data and returns its public URL. ext includes the leading dot.
	Save(ctx context.Context, data []byte, ext, contentType string) (string, error)
}

// New picks the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "local":
		return NewLocalStore(cfg.UploadDir, cfg.PublicPath, log)
	case "s3":
		return NewS3Store(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// objectName is unique per upload and never derived from client input.
func objectName(ext string) string {
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
}

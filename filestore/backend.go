package filestore

import (
	"context"
	"fmt"
	"log"

	"reviewcms/config"
)

// NewBackend builds the backend named by cfg.Backend.
func NewBackend(ctx context.Context, cfg config.UploadConfig) (Backend, error) {
	switch cfg.Backend {
	case "", "local":
		log.Printf("📁 Upload backend: local (%s)", cfg.Dir)
		return NewLocal(cfg.Dir)
	case "minio":
		log.Printf("📁 Upload backend: minio (%s/%s)", cfg.MinIO.Endpoint, cfg.MinIO.Bucket)
		return NewMinIO(ctx, cfg.MinIO)
	case "cloudinary":
		log.Printf("📁 Upload backend: cloudinary")
		return NewCloudinary(cfg.CloudinaryURL)
	}
	return nil, fmt.Errorf("unknown upload backend %q", cfg.Backend)
}

var (
	_ Backend = (*Local)(nil)
	_ Backend = (*MinIO)(nil)
	_ Backend = (*Cloudinary)(nil)
)

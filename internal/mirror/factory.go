package mirror

import (
	"context"
	"fmt"

	"till-go/internal/config"
	"till-go/internal/till"
)

// NewMirrorFromConfig creates a Mirror implementation based on the mirror
// config type. An empty type means no mirroring.
func NewMirrorFromConfig(ctx context.Context, cfg config.MirrorConfig) (till.Mirror, error) {
	switch cfg.Type {
	case "", "none":
		return NopMirror{}, nil
	case "memory":
		return NewMemoryMirror(), nil
	case "s3":
		return NewS3Mirror(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown mirror type: %s", cfg.Type)
	}
}

// Package artifact stores exported scenario files on the local filesystem or
// in an S3-compatible bucket.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reportengine/internal/codec"
	"reportengine/internal/config"
)

var (
	ErrExists   = errors.New("artifact already exists")
	ErrNotFound = errors.New("artifact not found")
)

type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

type Info struct {
	Name         string
	Size         int64
	ContentType  string
	LastModified time.Time
	// Location is a file path or an s3:// URL.
	Location string
}

// Sink is a write-once store for export artifacts.
type Sink interface {
	Driver() Driver
	Put(ctx context.Context, a codec.Artifact) (Info, error)
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]Info, error)
}

// Open selects a Sink from the artifacts configuration.
func Open(ctx context.Context, cfg config.ArtifactsConfig) (Sink, error) {
	switch Driver(cfg.Driver) {
	case DriverFilesystem, "":
		return NewFilesystem(cfg.Dir)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown artifact driver %s", cfg.Driver)
	}
}

func sanitizeName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty artifact name")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return name, nil
}

package blob

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	// ErrNotFound is returned when no blob exists for a storage key.
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidRange is returned when a requested byte interval falls
	// outside the blob's bounds.
	ErrInvalidRange = errors.New("invalid blob range")
)

// Store persists raw video content under generated storage keys. Keys are
// created exactly once; content is never updated in place. Readers returned
// by Open and OpenRange are independent, so concurrent reads of the same
// blob do not interfere.
type Store interface {
	// Put writes the content of r under a freshly generated key and
	// returns the key together with the number of bytes written.
	Put(ctx context.Context, r io.Reader, ext string) (key string, size int64, err error)

	// Stat returns the total size of the blob stored under key.
	Stat(ctx context.Context, key string) (int64, error)

	// Open returns the full blob content.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// OpenRange returns exactly end-start+1 bytes starting at start.
	// Both offsets are inclusive and must satisfy
	// 0 <= start <= end < size.
	OpenRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)
}

type BackendType string

const (
	BackendLocal BackendType = "local"
	BackendS3    BackendType = "s3"
)

type Config struct {
	Backend     BackendType `mapstructure:"backend"`
	LocalPath   string      `mapstructure:"localPath"`
	S3Endpoint  string      `mapstructure:"s3Endpoint"`
	S3Bucket    string      `mapstructure:"s3Bucket"`
	S3AccessKey string      `mapstructure:"s3AccessKey"`
	S3SecretKey string      `mapstructure:"s3SecretKey"`
	S3Region    string      `mapstructure:"s3Region"`
	S3UseSSL    bool        `mapstructure:"s3UseSSL"`
}

func NewStore(config *Config) (Store, error) {
	switch config.Backend {
	case BackendS3:
		return NewS3Store(config)
	default:
		return NewLocalStore(config)
	}
}

// normalizeExt sanitizes a caller-supplied filename extension before it is
// appended to a generated key. Anything that is not a plain ".ext" suffix
// is dropped.
func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if strings.ContainsAny(ext[1:], "./\\") {
		return ""
	}
	return strings.ToLower(ext)
}

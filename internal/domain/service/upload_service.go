package service

import (
	"context"
	"io"
)

// UploadService stores a binary blob with an external object store and
// returns a public URL for it.
type UploadService interface {
	Upload(ctx context.Context, file io.Reader, contentType string) (string, error)
	Close() error
}

package session

import "context"

// Compressor reduces a video asset's size before upload. Compression is
// best-effort: when it fails the coordinator logs and uploads the original
// asset instead of aborting the session.
type Compressor interface {
	Compress(ctx context.Context, path string) (string, error)
}

// NoopCompressor passes assets through unchanged. The platform compression
// step lives on the device side; this keeps the pipeline shape without it.
type NoopCompressor struct{}

func (NoopCompressor) Compress(ctx context.Context, path string) (string, error) {
	return path, nil
}

package storage

import "io"

type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Storage holds uploaded practice media while analysis runs.
type Storage interface {
	SaveFile(file io.Reader, info FileInfo) (string, error)
	OpenFile(path string) (io.ReadSeekCloser, error)
	DeleteFile(path string) error
	FilePath(path string) string
}

package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (ls *LocalStorage) SaveFile(file io.Reader, info FileInfo) (string, error) {
	ext := filepath.Ext(info.Filename)
	if ext == "" {
		ext = extForContentType(info.ContentType)
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	fullPath := filepath.Join(ls.basePath, filename)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filename, nil
}

func (ls *LocalStorage) OpenFile(path string) (io.ReadSeekCloser, error) {
	fullPath, err := ls.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

func (ls *LocalStorage) DeleteFile(path string) error {
	fullPath, err := ls.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// FilePath returns the absolute path for a stored file, for handing to the
// analysis services.
func (ls *LocalStorage) FilePath(path string) string {
	fullPath, err := ls.resolve(path)
	if err != nil {
		return ""
	}
	return fullPath
}

func (ls *LocalStorage) resolve(path string) (string, error) {
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("invalid path")
	}
	return filepath.Join(ls.basePath, cleanPath), nil
}

func extForContentType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "audio/"):
		return ".mp3"
	case strings.HasPrefix(contentType, "video/"):
		return ".mp4"
	default:
		return ".bin"
	}
}

package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()

	ls, err := NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return ls
}

func TestSaveAndOpenFile(t *testing.T) {
	ls := setupLocalStorage(t)

	content := "guzheng audio bytes"
	name, err := ls.SaveFile(strings.NewReader(content), FileInfo{
		Filename:    "take.mp3",
		ContentType: "audio/mpeg",
		Size:        int64(len(content)),
	})
	if err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	if filepath.Ext(name) != ".mp3" {
		t.Errorf("expected .mp3 extension, got %q", name)
	}
	if strings.ContainsAny(name, "/\\") {
		t.Errorf("stored name must be a bare filename, got %q", name)
	}

	file, err := ls.OpenFile(name)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("Failed to read stored file: %v", err)
	}
	if string(data) != content {
		t.Errorf("stored content mismatch: %q", data)
	}
}

func TestSaveFileExtensionFallback(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		wantExt     string
	}{
		{name: "filename extension wins", filename: "take.mp3", contentType: "video/mp4", wantExt: ".mp3"},
		{name: "audio content type", filename: "upload", contentType: "audio/mpeg", wantExt: ".mp3"},
		{name: "video content type", filename: "upload", contentType: "video/mp4", wantExt: ".mp4"},
		{name: "unknown content type", filename: "upload", contentType: "application/octet-stream", wantExt: ".bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ls := setupLocalStorage(t)

			name, err := ls.SaveFile(strings.NewReader("x"), FileInfo{
				Filename:    tt.filename,
				ContentType: tt.contentType,
			})
			if err != nil {
				t.Fatalf("SaveFile failed: %v", err)
			}
			if filepath.Ext(name) != tt.wantExt {
				t.Errorf("expected extension %s, got %q", tt.wantExt, name)
			}
		})
	}
}

func TestDeleteFile(t *testing.T) {
	ls := setupLocalStorage(t)

	name, err := ls.SaveFile(strings.NewReader("bytes"), FileInfo{Filename: "take.mp4"})
	if err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	if err := ls.DeleteFile(name); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if _, err := os.Stat(ls.FilePath(name)); !os.IsNotExist(err) {
		t.Error("file still exists after delete")
	}
	if err := ls.DeleteFile(name); err == nil {
		t.Error("expected error deleting a missing file")
	}
}

func TestFilePath(t *testing.T) {
	ls := setupLocalStorage(t)

	name, err := ls.SaveFile(strings.NewReader("bytes"), FileInfo{Filename: "take.mp3"})
	if err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	path := ls.FilePath(name)
	if path == "" {
		t.Fatal("expected a resolved path")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("resolved path does not exist: %v", err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	ls := setupLocalStorage(t)

	if _, err := ls.OpenFile("../../etc/passwd"); err == nil {
		t.Error("expected traversal path to be rejected on open")
	}
	if err := ls.DeleteFile("../secret"); err == nil {
		t.Error("expected traversal path to be rejected on delete")
	}
	if path := ls.FilePath("../../escape"); path != "" {
		t.Errorf("expected empty path for traversal attempt, got %q", path)
	}
}

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetFilename(t *testing.T) {
	if got := GetFilename("/videos/clip.mp4"); got != "clip.mp4" {
		t.Errorf("GetFilename = %q, want clip.mp4", got)
	}
}

func TestGetFileStem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/videos/clip.mp4", "clip"},
		{"clip.tar.gz", "clip.tar"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := GetFileStem(tt.path); got != tt.want {
			t.Errorf("GetFileStem(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIsVideoFile(t *testing.T) {
	dir := t.TempDir()

	video := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(video, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if !IsVideoFile(video) {
		t.Error("expected .mp4 to be a video file")
	}
	if IsVideoFile(text) {
		t.Error("expected .txt not to be a video file")
	}
	if IsVideoFile(dir) {
		t.Error("expected directory not to be a video file")
	}
	if IsVideoFile(filepath.Join(dir, "missing.mp4")) {
		t.Error("expected missing file not to be a video file")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	content := []byte("frame data")
	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("copied content = %q, want %q", got, content)
	}
}

func TestRemoveQuietly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scratch.jpg")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	RemoveQuietly(path)
	if FileExists(path) {
		t.Error("expected file to be removed")
	}

	// Missing files and empty paths are not errors.
	RemoveQuietly(path)
	RemoveQuietly("")
}

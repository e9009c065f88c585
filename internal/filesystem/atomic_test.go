package filesystem

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jpg")

	err := WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, err := w.Write([]byte("first"))
		return err
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	err = WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, err := w.Write([]byte("second"))
		return err
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic() replace error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}
	if names := listDir(t, dir); len(names) != 1 {
		t.Errorf("directory contains %v, want only out.jpg", names)
	}
}

func TestWriteFileAtomic_WriterErrorLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jpg")
	boom := errors.New("encoder exploded")

	err := WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WriteFileAtomic() error = %v, want %v", err, boom)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Errorf("directory contains %v, want empty", names)
	}
}

func TestWriteFileAtomic_RenameErrorLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jpg")

	renameFunc = func(string, string) error { return os.ErrPermission }
	defer func() { renameFunc = os.Rename }()

	err := WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, err := w.Write([]byte("data"))
		return err
	})
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("WriteFileAtomic() error = %v, want ErrPermission", err)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Errorf("directory contains %v, want empty", names)
	}
}

func TestIsTempFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".abc.jpg.tmp-12345", true},
		{"/cache/.abc.jpg.tmp-1", true},
		{"abc.jpg", false},
		{".hidden", false},
		{"abc.tmp-1", false},
	}
	for _, tt := range tests {
		if got := IsTempFile(tt.name); got != tt.want {
			t.Errorf("IsTempFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

package fsx

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ch_0001.txt")

	if err := WriteFileAtomic(path, []byte("one"), PermFile); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two"), PermFile); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Errorf("expected %q, got %q", "two", got)
	}
	assertNoTemps(t, filepath.Dir(path))
}

func TestCreateIfAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ch_0001.yaml")

	created, err := CreateIfAbsent(path, []byte("first"), PermFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected file to be created")
	}

	created, err = CreateIfAbsent(path, []byte("second"), PermFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected existing file to be kept")
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "first" {
		t.Errorf("existing file was modified: %q", got)
	}
	assertNoTemps(t, filepath.Dir(path))
}

func assertNoTemps(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func writeFile(t *testing.T, s *FS, rel, content string) {
	t.Helper()
	p := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRead(t *testing.T) {
	s := tempVault(t)
	writeFile(t, s, "note.md", "# Hello\nWorld\n")
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "# Hello\nWorld\n" {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestFile(t *testing.T) {
	s := tempVault(t)
	writeFile(t, s, "daily/2024-03-15.md", "x")

	f := s.File("daily/2024-03-15.md")
	if f == nil {
		t.Fatal("expected a handle")
	}
	if f.Path != "daily/2024-03-15.md" || f.Name != "2024-03-15.md" {
		t.Errorf("file = %+v", f)
	}
	if s.File("daily") != nil {
		t.Error("directories are not files")
	}
	if s.File("missing.md") != nil {
		t.Error("missing file should be nil")
	}
	if s.File("../escape.md") != nil {
		t.Error("traversal should be nil")
	}
}

func TestStat(t *testing.T) {
	s := tempVault(t)
	writeFile(t, s, "a.md", "a")
	mtime := time.Date(2023, time.July, 4, 12, 0, 0, 0, time.Local)
	if err := os.Chtimes(filepath.Join(s.root, "a.md"), mtime, mtime); err != nil {
		t.Fatal(err)
	}

	st, err := s.Stat(context.Background(), "a.md")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.Mtime != mtime.UnixMilli() {
		t.Errorf("mtime = %d, want %d", st.Mtime, mtime.UnixMilli())
	}
	if st.Ctime == 0 {
		t.Error("ctime not set")
	}

	if _, err := s.Stat(context.Background(), "missing.md"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFrontmatter(t *testing.T) {
	s := tempVault(t)
	writeFile(t, s, "fm.md", "---\ncreated: 2024-03-01\n---\nbody\n")
	writeFile(t, s, "plain.md", "body\n")

	fm, err := s.Frontmatter(context.Background(), s.File("fm.md"))
	if err != nil {
		t.Fatalf("Frontmatter: %v", err)
	}
	if fm["created"] != "2024-03-01" {
		t.Errorf("created = %#v", fm["created"])
	}

	fm, err = s.Frontmatter(context.Background(), s.File("plain.md"))
	if err != nil || fm != nil {
		t.Errorf("plain note: fm=%v err=%v", fm, err)
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	writeFile(t, s, "a.md", "a")
	writeFile(t, s, "sub/b.md", "b")
	writeFile(t, s, "readme.txt", "not md")
	writeFile(t, s, ".obsidian/cache.md", "hidden")

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	for _, it := range items {
		if it.Checksum == "" {
			t.Errorf("%s: empty checksum", it.Path)
		}
	}
}

func TestChecksumStable(t *testing.T) {
	if Checksum([]byte("a")) != Checksum([]byte("a")) {
		t.Error("checksum not deterministic")
	}
	if Checksum([]byte("a")) == Checksum([]byte("b")) {
		t.Error("checksum collision")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if _, err := s.Stat(context.Background(), p); err == nil {
			t.Errorf("expected stat error for %q", p)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/dayfinder-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "dayfinder-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

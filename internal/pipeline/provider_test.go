package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestFolderProvider(t *testing.T) {
	t.Parallel()

	t.Run("reads html files sorted by name", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "b.html"), "<p>b</p>")
		writeFile(t, filepath.Join(dir, "a.HTML"), "<p>a</p>")
		writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
		if err := os.Mkdir(filepath.Join(dir, "sub.html"), 0o750); err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(dir, "sub.html", "c.html"), "<p>c</p>")

		got, err := FolderProvider{Dir: dir}.Pages(context.Background())
		if err != nil {
			t.Fatalf("Pages() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 pages, got %d", len(got))
		}
		if got[0].Source != filepath.Join(dir, "a.HTML") || got[1].Source != filepath.Join(dir, "b.html") {
			t.Errorf("sources = %s, %s", got[0].Source, got[1].Source)
		}
		if got[1].Markup != "<p>b</p>" || got[1].Hash == "" {
			t.Errorf("page = %+v", got[1])
		}
	})

	t.Run("missing folder", func(t *testing.T) {
		t.Parallel()

		_, err := FolderProvider{Dir: filepath.Join(t.TempDir(), "missing")}.Pages(context.Background())
		if err == nil {
			t.Error("expected an error for a missing folder")
		}
	})

	t.Run("empty folder", func(t *testing.T) {
		t.Parallel()

		got, err := FolderProvider{Dir: t.TempDir()}.Pages(context.Background())
		if err != nil || len(got) != 0 {
			t.Errorf("Pages() = %v, %v", got, err)
		}
	})
}

func TestFileProvider(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	second := filepath.Join(dir, "second.html")
	first := filepath.Join(dir, "first.html")
	writeFile(t, second, "2")
	writeFile(t, first, "1")

	t.Run("keeps the given order", func(t *testing.T) {
		t.Parallel()

		got, err := FileProvider{Paths: []string{second, first}}.Pages(context.Background())
		if err != nil {
			t.Fatalf("Pages() error = %v", err)
		}
		if len(got) != 2 || got[0].Source != second || got[1].Source != first {
			t.Errorf("unexpected pages: %+v", got)
		}
	})

	t.Run("fails on an unreadable path", func(t *testing.T) {
		t.Parallel()

		_, err := FileProvider{Paths: []string{first, filepath.Join(dir, "nope.html")}}.Pages(context.Background())
		if err == nil {
			t.Error("expected an error")
		}
	})
}

func TestStaticProvider(t *testing.T) {
	t.Parallel()

	p := pages(3)
	got, err := p.Pages(context.Background())
	if err != nil || len(got) != 3 || got[2] != p[2] {
		t.Errorf("Pages() = %v, %v", got, err)
	}
}

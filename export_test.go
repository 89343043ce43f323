package visurena

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// snapshot maps every file under dir to a hash of its content.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		sum := sha256.Sum256(data)
		files[filepath.ToSlash(rel)] = hex.EncodeToString(sum[:])
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	return files
}

func TestFreezeWritesSite(t *testing.T) {
	s := newTestSite(t)
	a := newTestApp(t, s)

	if err := a.Freeze(); err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}
	files := snapshot(t, s.outDir)
	for _, want := range []string{
		"index.html",
		"movies/index.html",
		"music/index.html",
		"games/index.html",
		"story/index.html",
		"blog/index.html",
		"blog/first/index.html",
		"blog/second/index.html",
		"blog/raw/index.html",
		"blog/tag/go/index.html",
		"blog/tag/music/index.html",
		"feed.xml",
		"atom.xml",
		"sitemap.xml",
		"robots.txt",
		"thumbs/pic.png",
		"public/site.css",
		"public/favicon.svg",
		"public/images/pic.png",
	} {
		if _, ok := files[want]; !ok {
			t.Errorf("missing %s", want)
		}
	}

	live := request(a, "/blog/first/").Body.String()
	frozen, err := os.ReadFile(filepath.Join(s.outDir, "blog", "first", "index.html"))
	if err != nil {
		t.Fatalf("read frozen post: %v", err)
	}
	if string(frozen) != live {
		t.Error("frozen page differs from the served page")
	}
}

func TestFreezeIsDeterministic(t *testing.T) {
	s := newTestSite(t)
	a := newTestApp(t, s)

	if err := a.Freeze(); err != nil {
		t.Fatalf("first Freeze failed: %v", err)
	}
	first := snapshot(t, s.outDir)
	if err := a.Freeze(); err != nil {
		t.Fatalf("second Freeze failed: %v", err)
	}
	second := snapshot(t, s.outDir)

	if len(first) != len(second) {
		t.Fatalf("file count changed: %d vs %d", len(first), len(second))
	}
	for name, sum := range first {
		if second[name] != sum {
			t.Errorf("%s changed between runs", name)
		}
	}
}

func TestFreezeRemovesDeletedPosts(t *testing.T) {
	s := newTestSite(t)
	a := newTestApp(t, s)

	if err := a.Freeze(); err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}
	writeFile(t, filepath.Join(s.outDir, "stray.txt"), "left over")
	if err := os.Remove(filepath.Join(s.postsDir, "first.md")); err != nil {
		t.Fatalf("remove post: %v", err)
	}
	if err := a.Freeze(); err != nil {
		t.Fatalf("Freeze after delete failed: %v", err)
	}

	for _, gone := range []string{"blog/first", "stray.txt"} {
		if _, err := os.Stat(filepath.Join(s.outDir, filepath.FromSlash(gone))); !os.IsNotExist(err) {
			t.Errorf("%s should be gone, stat err = %v", gone, err)
		}
	}
	listing, err := os.ReadFile(filepath.Join(s.outDir, "blog", "index.html"))
	if err != nil {
		t.Fatalf("read listing: %v", err)
	}
	if strings.Contains(string(listing), "/blog/first/") {
		t.Error("listing still links the deleted post")
	}
}

func TestFreezePercentSlug(t *testing.T) {
	s := newTestSite(t)
	writeFile(t, filepath.Join(s.postsDir, "50%25_off.md"), "---\ntitle: Half Price\ntags: [\"100%\"]\n---\nCheap.\n")
	a := newTestApp(t, s)

	if err := a.Freeze(); err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}
	for _, want := range []string{"blog/50%25_off/index.html", "blog/tag/100%/index.html"} {
		if _, err := os.Stat(filepath.Join(s.outDir, filepath.FromSlash(want))); err != nil {
			t.Errorf("missing %s: %v", want, err)
		}
	}
}

func TestFreezeAbortsOnBrokenPost(t *testing.T) {
	s := newTestSite(t)
	writeFile(t, filepath.Join(s.postsDir, "broken.md"), "---\ntitle: [unclosed\n---\n")
	a := newTestApp(t, s)

	if err := a.Freeze(); err == nil {
		t.Fatal("expected Freeze to fail")
	}
}

func TestFreezeRoutes(t *testing.T) {
	a := newTestApp(t, newTestSite(t))

	routes, err := a.FreezeRoutes()
	if err != nil {
		t.Fatalf("FreezeRoutes failed: %v", err)
	}
	want := []string{
		"/", "/movies/", "/music/", "/games/", "/story/",
		"/blog/", "/blog/first/", "/blog/raw/", "/blog/second/",
		"/blog/tag/go/", "/blog/tag/music/",
		"/feed.xml", "/atom.xml", "/sitemap.xml", "/robots.txt",
		"/thumbs/pic.png",
	}
	if !slices.Equal(routes, want) {
		t.Errorf("routes = %v\nwant %v", routes, want)
	}
}

func TestFreezeRefusesSourceDirs(t *testing.T) {
	s := newTestSite(t)
	cfg := s.config()
	cfg.OutDir = s.root
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := a.Freeze(); err == nil {
		t.Fatal("expected Freeze to refuse a directory containing the posts")
	}
	if _, err := os.Stat(filepath.Join(s.postsDir, "first.md")); err != nil {
		t.Errorf("posts must survive a refused freeze: %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/", "out/index.html"},
		{"/blog/", "out/blog/index.html"},
		{"/blog/my%20post/", "out/blog/my post/index.html"},
		{"/feed.xml", "out/feed.xml"},
		{"/thumbs/a.png", "out/thumbs/a.png"},
	}
	for _, tt := range tests {
		got, err := outputPath("out", tt.route)
		if err != nil {
			t.Errorf("outputPath(%q) failed: %v", tt.route, err)
			continue
		}
		if filepath.ToSlash(got) != tt.want {
			t.Errorf("outputPath(%q) = %q, want %q", tt.route, got, tt.want)
		}
	}
}

package scaffold

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/visurena/website/posts"
)

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-site")
	data := Data{ProjectName: "my-site", SiteName: "My Site", Date: "2024-05-01"}

	created, err := Generate(dir, data)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(created) == 0 {
		t.Fatal("expected files to be created")
	}

	for _, name := range []string{
		".env.example",
		"README.md",
		"posts/hello_world.md",
		"posts/about_this_site.html",
		"static/images/.gitkeep",
		"templates/.gitkeep",
	} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "dotenv")); !os.IsNotExist(err) {
		t.Error("dotenv should be renamed to .env.example")
	}

	env, err := os.ReadFile(filepath.Join(dir, ".env.example"))
	if err != nil {
		t.Fatalf("read .env.example: %v", err)
	}
	if !strings.Contains(string(env), "SITE_NAME=My Site") {
		t.Errorf(".env.example missing site name:\n%s", env)
	}
}

func TestGeneratedPostsLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	if _, err := Generate(dir, Data{SiteName: "Site", Date: "2024-05-01"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ix := posts.NewIndex(posts.NewStore(filepath.Join(dir, "posts")), posts.OrderBySlug)
	ps, err := ix.OrderedPosts()
	if err != nil {
		t.Fatalf("OrderedPosts failed: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("got %d posts, want 2", len(ps))
	}

	hello, about := ps[0], ps[1]
	if about.Title != "About This Site" || about.Format != posts.HTML {
		t.Errorf("about post = %q (%v)", about.Title, about.Format)
	}
	if hello.Title != "Hello World" || hello.Date != "2024-05-01" || !hello.HasTag("welcome") {
		t.Errorf("hello post = %+v", hello)
	}
}

func TestGenerateRefusesExistingDir(t *testing.T) {
	dir := t.TempDir()
	if _, err := Generate(dir, Data{}); !errors.Is(err, ErrExists) {
		t.Fatalf("err = %v, want ErrExists", err)
	}
}

func TestTitleFromName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"my-site", "My Site"},
		{"visurena", "Visurena"},
		{"my_cool--site", "My Cool Site"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := TitleFromName(tt.in); got != tt.want {
			t.Errorf("TitleFromName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

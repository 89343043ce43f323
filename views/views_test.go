package views

import (
	"bytes"
	"context"
	"html/template"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/visurena/website/posts"
)

func render(t *testing.T, s *Set, name string, data Page) string {
	t.Helper()
	var buf bytes.Buffer
	if err := s.Page(name, data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return buf.String()
}

func testSite() SiteConfig {
	return SiteConfig{Name: "ViSuReNa", URL: "https://example.com", Description: "Visual stories", Author: "Jo"}
}

func load(t *testing.T) *Set {
	t.Helper()
	s, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s
}

func TestLoadHasEveryPage(t *testing.T) {
	s := load(t)
	for _, name := range Pages {
		if _, ok := s.pages[name]; !ok {
			t.Errorf("missing page %q", name)
		}
	}
	if len(s.pages) != len(Pages) {
		t.Errorf("got %d pages, want %d", len(s.pages), len(Pages))
	}
}

func TestStaticPagesRender(t *testing.T) {
	s := load(t)
	tests := []struct {
		page    string
		section string
		want    string
	}{
		{PageIndex, "home", "Visual stories"},
		{PageMovies, "movies", "Coming Soon"},
		{PageMusic, "music", "Coming Soon"},
		{PageGames, "games", "Coming Soon"},
		{PageStory, "story", "Coming Soon"},
		{PageNotFound, "", "404"},
		{PageServerError, "", "500"},
	}
	for _, tt := range tests {
		out := render(t, s, tt.page, Page{Site: testSite(), Section: tt.section})
		if !strings.Contains(out, tt.want) {
			t.Errorf("%s: missing %q", tt.page, tt.want)
		}
		if !strings.HasPrefix(out, "<!DOCTYPE html>") {
			t.Errorf("%s: not wrapped in layout", tt.page)
		}
		if tt.section != "" && !strings.Contains(out, `class="theme-`+tt.section+`"`) {
			t.Errorf("%s: body class missing section", tt.page)
		}
	}
}

func TestBlogListing(t *testing.T) {
	data := Page{
		Site:    testSite(),
		Section: "blog",
		Tags:    []string{"go", "rock & roll"},
		Posts: []posts.View{
			{Slug: "first", Title: "First <Post>", Date: "2024-02-01", Image: "/public/images/a.png", Tags: []string{"go"}, ReadingTime: "1 min read"},
			{Slug: "second", Title: "Second", Introduction: "Intro text"},
		},
	}
	out := render(t, load(t), PageBlog, data)

	for _, want := range []string{
		`href="/blog/first/"`,
		`href="/blog/second/"`,
		"First &lt;Post&gt;",
		`src="/thumbs/a.png"`,
		"Intro text",
		"1 min read",
		`href="/blog/tag/rock%20&amp;%20roll/"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q", want)
		}
	}
	if strings.Index(out, "/blog/first/") > strings.Index(out, "/blog/second/") {
		t.Error("listing does not keep post order")
	}
}

func TestBlogListingEmpty(t *testing.T) {
	out := render(t, load(t), PageBlog, Page{Site: testSite(), Section: "blog"})
	if !strings.Contains(out, "No blog posts yet.") {
		t.Error("empty listing message missing")
	}
}

func TestPostPage(t *testing.T) {
	data := Page{
		Site:    testSite(),
		Section: "blog",
		Meta:    PageMeta{Title: "Hello", OGType: "article"},
		Post: posts.View{
			Slug:    "hello",
			Title:   "Hello",
			Date:    "2024-01-01",
			Content: template.HTML("<p>raw <em>html</em></p>"),
		},
	}
	out := render(t, load(t), PagePost, data)
	if !strings.Contains(out, "<p>raw <em>html</em></p>") {
		t.Error("post content was escaped")
	}
	if !strings.Contains(out, `"@type":"BlogPosting"`) {
		t.Error("BlogPosting JSON-LD missing")
	}
	if !strings.Contains(out, `content="article"`) {
		t.Error("og:type missing")
	}
	if !strings.Contains(out, "<title>Hello | ViSuReNa</title>") {
		t.Error("title missing")
	}
}

func TestLoadOverridesEmbedded(t *testing.T) {
	overlay := fstest.MapFS{
		"movies.html": {Data: []byte(`{{define "content"}}<h1>Now Showing</h1>{{end}}`)},
	}
	s, err := Load(overlay)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	out := render(t, s, PageMovies, Page{Site: testSite()})
	if !strings.Contains(out, "Now Showing") || strings.Contains(out, "Coming Soon") {
		t.Errorf("override not applied: %s", out)
	}
	if got := render(t, s, PageMusic, Page{Site: testSite()}); !strings.Contains(got, "Coming Soon") {
		t.Error("non-overridden page should use the embedded template")
	}
}

func TestLoadRejectsBrokenTemplate(t *testing.T) {
	overlay := fstest.MapFS{
		"story.html": {Data: []byte(`{{define "content"}}{{.Nope`)},
	}
	if _, err := Load(overlay); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestUnknownPage(t *testing.T) {
	var buf bytes.Buffer
	if err := load(t).Page("admin", Page{}).Render(context.Background(), &buf); err == nil {
		t.Fatal("expected error for unknown page")
	}
}

func TestThumbURL(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"/public/images/a.png", "/thumbs/a.png"},
		{"/public/images/sub/a.png", "/public/images/sub/a.png"},
		{"https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ThumbURL(tt.input); got != tt.want {
			t.Errorf("ThumbURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

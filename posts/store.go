package posts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/PuerkitoBio/goquery"
	"github.com/adrg/frontmatter"
)

// ErrNotFound is returned when no source file backs the requested slug.
var ErrNotFound = errors.New("posts: not found")

// DefaultExtensions are the recognised post file extensions, in the order
// Load tries them.
var DefaultExtensions = []string{".html", ".md"}

// Store reads posts from a flat directory of <slug><ext> files.
type Store struct {
	dir  string
	exts []string
}

// NewStore returns a Store over dir. With no extensions given it recognises
// DefaultExtensions.
func NewStore(dir string, exts ...string) *Store {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return &Store{dir: dir, exts: exts}
}

// Dir returns the directory the store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// ListSlugs returns the slug of every post file in the directory, in
// directory enumeration order. A slug present under two extensions is listed
// once. A missing directory holds no posts.
func (s *Store) ListSlugs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("posts: list %s: %w", s.dir, err)
	}
	seen := make(map[string]struct{}, len(entries))
	slugs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		slug, ok := s.slugOf(e.Name())
		if !ok {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		slugs = append(slugs, slug)
	}
	return slugs, nil
}

func (s *Store) slugOf(name string) (string, bool) {
	for _, ext := range s.exts {
		if strings.HasSuffix(name, ext) && len(name) > len(ext) {
			return strings.TrimSuffix(name, ext), true
		}
	}
	return "", false
}

// Load reads and parses the post named slug. It returns ErrNotFound when no
// file backs the slug, including when the file disappears between listing and
// loading.
func (s *Store) Load(slug string) (Post, error) {
	if !validSlug(slug) {
		return Post{}, ErrNotFound
	}
	for _, ext := range s.exts {
		path := filepath.Join(s.dir, slug+ext)
		data, err := readRegularFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Post{}, fmt.Errorf("posts: read %s: %w", path, err)
		}
		var p Post
		if ext == ".html" || ext == ".htm" {
			p, err = parseHTML(data)
			p.Format = HTML
		} else {
			p, err = parseMarkdown(data)
			p.Format = Markdown
		}
		if err != nil {
			return Post{}, fmt.Errorf("posts: parse %s: %w", path, err)
		}
		p.Slug = slug
		if p.Title == "" {
			p.Title = TitleFromSlug(slug)
		}
		return p, nil
	}
	return Post{}, ErrNotFound
}

// readRegularFile reads path, reporting directories as fs.ErrNotExist so they
// are treated like any other non-post entry.
func readRegularFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fs.ErrNotExist
	}
	return io.ReadAll(f)
}

// tagList accepts tags written either as a list or as one comma separated
// string.
type tagList []string

func (t *tagList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*t = splitTags(s)
	return nil
}

func (t *tagList) UnmarshalTOML(v interface{}) error {
	switch v := v.(type) {
	case string:
		*t = splitTags(v)
	case []interface{}:
		list := make([]string, 0, len(v))
		for _, item := range v {
			list = append(list, fmt.Sprint(item))
		}
		*t = list
	default:
		return fmt.Errorf("posts: tags must be a list or a string, got %T", v)
	}
	return nil
}

// dateString keeps a front matter date as text. TOML decodes bare dates to
// time values, which are formatted back the way they were written.
type dateString string

func (d *dateString) UnmarshalTOML(v interface{}) error {
	switch v := v.(type) {
	case string:
		*d = dateString(v)
	case time.Time:
		switch v.Location() {
		case toml.LocalDate:
			*d = dateString(v.Format(time.DateOnly))
		case toml.LocalDatetime:
			*d = dateString(v.Format("2006-01-02T15:04:05"))
		default:
			*d = dateString(v.Format(time.RFC3339))
		}
	default:
		return fmt.Errorf("posts: date must be a string or a date, got %T", v)
	}
	return nil
}

type frontMatter struct {
	Title        string     `yaml:"title" toml:"title" json:"title"`
	Date         dateString `yaml:"date" toml:"date" json:"date"`
	Introduction string     `yaml:"introduction" toml:"introduction" json:"introduction"`
	Image        string     `yaml:"image" toml:"image" json:"image"`
	Tags         tagList    `yaml:"tags" toml:"tags" json:"tags"`
}

// parseMarkdown splits an optional front matter block from the body.
func parseMarkdown(data []byte) (Post, error) {
	var meta frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return Post{}, err
	}
	return Post{
		Title:        strings.TrimSpace(meta.Title),
		Date:         strings.TrimSpace(string(meta.Date)),
		Introduction: strings.TrimSpace(meta.Introduction),
		Image:        strings.TrimSpace(meta.Image),
		Tags:         []string(meta.Tags),
		Body:         string(body),
	}, nil
}

// parseHTML reads metadata from <meta name=...> tags and <title>; the body is
// the inner HTML of <body>.
func parseHTML(data []byte) (Post, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return Post{}, err
	}
	meta := func(name string) string {
		v, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
		return strings.TrimSpace(v)
	}
	title := meta("title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	body, err := doc.Find("body").First().Html()
	if err != nil {
		return Post{}, err
	}
	return Post{
		Title:        title,
		Date:         meta("date"),
		Introduction: meta("description"),
		Image:        meta("image"),
		Tags:         splitTags(meta("tags")),
		Body:         strings.TrimSpace(body),
	}, nil
}

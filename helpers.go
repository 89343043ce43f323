package visurena

import (
	"net/url"
	"path"
	"strings"

	"github.com/visurena/website/posts"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// AbsoluteURL resolves ref (an absolute path or full URL) against base.
func AbsoluteURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if r.IsAbs() {
		return ref
	}
	if strings.HasPrefix(ref, "/") && b.Path != "" && b.Path != "/" {
		joined := path.Join(b.Path, r.Path)
		if strings.HasSuffix(r.Path, "/") && !strings.HasSuffix(joined, "/") {
			joined += "/"
		}
		r.Path = joined
	}
	return b.ResolveReference(r).String()
}

// maxRelated caps the related-post list under a post.
const maxRelated = 3

// FilterRelatedPosts returns up to three posts sharing a tag with current, in
// the order of all.
func FilterRelatedPosts(current posts.Post, all []posts.Post) []posts.Post {
	if len(current.Tags) == 0 {
		return nil
	}
	var related []posts.Post
	for _, p := range all {
		if p.Slug == current.Slug {
			continue
		}
		for _, t := range current.Tags {
			if p.HasTag(t) {
				related = append(related, p)
				break
			}
		}
		if len(related) == maxRelated {
			break
		}
	}
	return related
}

package posts

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Source enumerates and loads posts. *Store is the only implementation; the
// interface is the seam where a cache could sit without touching the Index or
// the Renderer.
type Source interface {
	ListSlugs() ([]string, error)
	Load(slug string) (Post, error)
}

// Order selects how listings are sorted.
type Order int

const (
	// OrderByDate sorts by the declared date string, newest first.
	OrderByDate Order = iota
	// OrderBySlug sorts by slug, descending.
	OrderBySlug
)

// ParseOrder maps "date" or "slug" to an Order. The empty string is
// OrderByDate.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "date":
		return OrderByDate, nil
	case "slug":
		return OrderBySlug, nil
	default:
		return OrderByDate, fmt.Errorf("posts: unknown order %q", s)
	}
}

// Index produces ordered post listings from a Source.
type Index struct {
	src   Source
	order Order
}

// NewIndex creates an Index over src.
func NewIndex(src Source, order Order) *Index {
	return &Index{src: src, order: order}
}

// OrderedPosts loads every post and returns them in listing order. Posts whose
// file vanished after enumeration are skipped.
func (ix *Index) OrderedPosts() ([]Post, error) {
	slugs, err := ix.src.ListSlugs()
	if err != nil {
		return nil, err
	}
	all := make([]Post, 0, len(slugs))
	for _, slug := range slugs {
		p, err := ix.src.Load(slug)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(all, p)
	}
	switch ix.order {
	case OrderBySlug:
		SortBySlug(all)
	default:
		SortByDate(all)
	}
	return all, nil
}

// SortByDate sorts posts by Date descending using plain string comparison.
// The sort is stable: equal or missing dates keep their relative order. Dates
// are never parsed, so only a consistent YYYY-MM-DD style gives chronological
// order.
func SortByDate(ps []Post) {
	slices.SortStableFunc(ps, func(a, b Post) int {
		return strings.Compare(b.Date, a.Date)
	})
}

// SortBySlug sorts posts by Slug descending.
func SortBySlug(ps []Post) {
	slices.SortStableFunc(ps, func(a, b Post) int {
		return strings.Compare(b.Slug, a.Slug)
	})
}

// Tags returns every tag used by any post, lower-cased, de-duplicated and
// sorted.
func (ix *Index) Tags() ([]string, error) {
	all, err := ix.OrderedPosts()
	if err != nil {
		return nil, err
	}
	return TagsOf(all), nil
}

// PostsWithTag returns the ordered posts carrying tag.
func (ix *Index) PostsWithTag(tag string) ([]Post, error) {
	all, err := ix.OrderedPosts()
	if err != nil {
		return nil, err
	}
	return WithTag(all, tag), nil
}

// TagsOf returns the normalized, de-duplicated, sorted tags of ps.
func TagsOf(ps []Post) []string {
	set := make(map[string]struct{})
	for _, p := range ps {
		for _, t := range p.Tags {
			if t = normalizeTag(t); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// WithTag filters ps down to the posts carrying tag, keeping their order.
func WithTag(ps []Post, tag string) []Post {
	var tagged []Post
	for _, p := range ps {
		if p.HasTag(tag) {
			tagged = append(tagged, p)
		}
	}
	return tagged
}

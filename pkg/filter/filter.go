// Package filter decides which linked URLs are treated as downloadable images.
package filter

import (
	"net/url"
	"path"
	"strings"
)

// Extension returns the last dot-delimited segment of the URL path, or ""
// when the final path segment has no dot.
func Extension(rawURL string) string {
	name := Filename(rawURL)
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return name[idx+1:]
}

// Filename derives the local filename from the final path segment of a URL.
// Query strings and fragments are ignored.
func Filename(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// ExtensionFilter keeps URLs whose extension is in an accepted set
type ExtensionFilter struct {
	accepted map[string]struct{}
}

// New creates an ExtensionFilter; extensions are matched case-insensitively
// and may be given with or without a leading dot.
func New(extensions []string) *ExtensionFilter {
	accepted := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			accepted[ext] = struct{}{}
		}
	}
	return &ExtensionFilter{accepted: accepted}
}

// Accepts reports whether the URL's extension is accepted
func (f *ExtensionFilter) Accepts(rawURL string) bool {
	ext := Extension(rawURL)
	if ext == "" {
		return false
	}
	_, ok := f.accepted[strings.ToLower(ext)]
	return ok
}

// Apply returns the accepted URLs in their original order and the number dropped
func (f *ExtensionFilter) Apply(urls []string) ([]string, int) {
	kept := make([]string, 0, len(urls))
	for _, u := range urls {
		if f.Accepts(u) {
			kept = append(kept, u)
		}
	}
	return kept, len(urls) - len(kept)
}

// ExcludeNames drops URLs whose derived filename is in names, returning the
// remaining URLs and the number dropped.
func ExcludeNames(urls []string, names map[string]struct{}) ([]string, int) {
	if len(names) == 0 {
		return urls, 0
	}
	kept := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := names[Filename(u)]; ok {
			continue
		}
		kept = append(kept, u)
	}
	return kept, len(urls) - len(kept)
}

// Package media resolves stored relative media paths to delivery URLs.
package media

import "strings"

// Resolver turns a stored media path into an absolute URL.
type Resolver interface {
	URL(path string) string
}

// BaseURLResolver prefixes relative paths with a configured delivery base
// URL. Paths that are already absolute pass through unchanged.
type BaseURLResolver struct {
	base string
}

// NewBaseURLResolver creates a resolver for the given base URL.
func NewBaseURLResolver(baseURL string) *BaseURLResolver {
	return &BaseURLResolver{base: strings.TrimRight(baseURL, "/")}
}

func (r *BaseURLResolver) URL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return r.base + "/" + strings.TrimLeft(path, "/")
}

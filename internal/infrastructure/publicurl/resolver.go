package publicurl

import (
	"net/url"
	"strings"
)

// DefaultBase is used when no public base URL is configured.
const DefaultBase = "http://localhost:3000"

// Resolver maps stored filenames to externally reachable URLs.
type Resolver struct {
	base string
}

// NewResolver trims trailing slashes from base; empty base selects DefaultBase.
func NewResolver(base string) *Resolver {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultBase
	}
	return &Resolver{base: base}
}

// Base returns the configured base URL.
func (r *Resolver) Base() string {
	return r.base
}

// Resolve returns <base>/<filename>. The base is not validated.
func (r *Resolver) Resolve(filename string) string {
	return r.base + "/" + url.PathEscape(filename)
}

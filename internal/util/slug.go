package util

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

var (
	dashRunRe = regexp.MustCompile(`-{2,}`)
	slugRe    = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Slugify derives the URL slug for a product name. The result is lowercase,
// limited to [a-z0-9-] and depends only on its input.
func Slugify(name string) string {
	s := slug.Make(name)
	s = strings.ReplaceAll(s, "_", "-")
	s = dashRunRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsValidSlug reports whether s is a canonical slug.
func IsValidSlug(s string) bool {
	return slugRe.MatchString(s)
}

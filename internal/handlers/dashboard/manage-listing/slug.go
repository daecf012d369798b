package managelisting

import (
	"strings"

	"github.com/gosimple/slug"
)

// Slugify transliterates name to ASCII and joins its words with dashes.
// Underscores count as separators so paths stay within [a-z0-9-].
func Slugify(name string) string {
	return slug.Make(strings.ReplaceAll(name, "_", " "))
}

// listingPath derives a path from name with the first n characters of id
// appended, so two listings with the same name get distinct paths.
func listingPath(name, id string, n int) string {
	suffix := strings.ReplaceAll(id, "-", "")
	if n > 0 && len(suffix) > n {
		suffix = suffix[:n]
	}
	if s := Slugify(name); s != "" {
		return s + "-" + suffix
	}
	return suffix
}

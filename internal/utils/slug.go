package utils

import (
	"context" // Context for lookups
	"regexp"  // Character classes
	"strconv" // Suffix formatting
	"strings" // Case folding
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name, turns runs of non-alphanumerics into one hyphen and trims hyphens
func Slugify(name string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// UniqueSlug derives a slug from name and appends -1, -2, ... until exists reports it free
func UniqueSlug(ctx context.Context, name string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := Slugify(name)
	slug := base
	for n := 1; ; n++ {
		taken, err := exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(n)
	}
}

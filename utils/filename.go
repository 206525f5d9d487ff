package utils

import (
	"net/url"
	"path"
	"strings"
)

const defaultFileName = "upload"

// FileNameFromURL returns the last path segment of a URL, used as the upload file name
// Example: https://a.storyblok.com/f/1/2000x1500/abc/photo.jpg -> photo.jpg
func FileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultFileName
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || strings.TrimSpace(name) == "" {
		return defaultFileName
	}
	return name
}

// UniqueStrings returns the non-empty values in first-seen order without duplicates
func UniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}

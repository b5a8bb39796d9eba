package tools

import "strings"

// FullURL joins a supplier base URL with a request path, tolerating
// stray slashes on either side.
func FullURL(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

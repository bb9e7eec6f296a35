// Package filter narrows a newest-first slice of entries by project, level
// and a message substring. Visible is pure, so callers run it on every render
// instead of caching results.
package filter

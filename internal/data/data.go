// Package data provides the default program catalog shipped with the binary.
// The document is maintained manually; deployments may override it with
// CATALOG_PATH or an object in R2.
package data

import (
	_ "embed"

	"github.com/genocem/Edumond-AI-portal/internal/catalog"
)

// CoursesJSON is the raw default catalog document.
//
//go:embed courses.json
var CoursesJSON []byte

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*catalog.Catalog, error) {
	return catalog.Parse(CoursesJSON)
}

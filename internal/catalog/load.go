package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	domerrors "github.com/genocem/Edumond-AI-portal/internal/errors"
)

// Document is the on-disk catalog shape: three differently named groups
// that are flattened into one list at load time.
type Document struct {
	Courses Groups `json:"courses" yaml:"courses"`
}

// Groups holds the three course collections of a Document.
type Groups struct {
	Language        []Course `json:"language_courses" yaml:"language_courses"`
	TestPreparation []Course `json:"test_preparation_courses" yaml:"test_preparation_courses"`
	Training        []Course `json:"other_training_categories" yaml:"other_training_categories"`
}

// group pairs a collection with its source key and implied category.
type group struct {
	key      string
	category Category
	courses  []Course
}

func (g Groups) ordered() []group {
	return []group{
		{"language_courses", CategoryLanguage, g.Language},
		{"test_preparation_courses", CategoryTestPrep, g.TestPreparation},
		{"other_training_categories", CategoryTraining, g.Training},
	}
}

// Flatten merges the groups in document order. A record without a category
// inherits its group's category. Every record is validated; all problems
// are reported together.
func (d Document) Flatten() ([]Course, error) {
	var (
		out  []Course
		errs []error
	)
	for _, g := range d.Courses.ordered() {
		for i := range g.courses {
			course := g.courses[i]
			if course.Category == "" {
				course.Category = g.category
			}
			if err := validateCourse(fmt.Sprintf("%s[%d]", g.key, i), course); err != nil {
				errs = append(errs, err)
			}
			out = append(out, course)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Format identifies the serialization of a catalog document.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// zstdSuffix marks a zstd-compressed document.
const zstdSuffix = ".zst"

// FormatFromPath infers the format from a file name or object key.
// A trailing ".zst" reports compressed=true and is ignored for the format.
func FormatFromPath(path string) (format Format, compressed bool, err error) {
	p := strings.ToLower(path)
	if strings.HasSuffix(p, zstdSuffix) {
		compressed = true
		p = strings.TrimSuffix(p, zstdSuffix)
	}
	switch filepath.Ext(p) {
	case ".json":
		return FormatJSON, compressed, nil
	case ".yaml", ".yml":
		return FormatYAML, compressed, nil
	default:
		return "", compressed, fmt.Errorf("%w: unsupported catalog extension %q", domerrors.ErrInvalidInput, path)
	}
}

// Decode reads a catalog document, optionally zstd-compressed, and returns
// the validated catalog.
func Decode(r io.Reader, format Format, compressed bool) (*Catalog, error) {
	if compressed {
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer decoder.Close()
		r = decoder
	}

	var doc Document
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json catalog: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown catalog format %q", domerrors.ErrInvalidInput, format)
	}

	courses, err := doc.Flatten()
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return New(courses)
}

// Parse decodes an uncompressed JSON catalog held in memory.
func Parse(data []byte) (*Catalog, error) {
	return Decode(bytes.NewReader(data), FormatJSON, false)
}

// LoadFile reads a catalog from disk, choosing the decoder by extension.
func LoadFile(path string) (*Catalog, error) {
	format, compressed, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f, format, compressed)
}

// validateCourses checks a flat course list, including id uniqueness.
func validateCourses(prefix string, courses []Course) error {
	var errs []error
	seen := make(map[string]int, len(courses))
	for i, course := range courses {
		field := fmt.Sprintf("%s[%d]", prefix, i)
		if err := validateCourse(field, course); err != nil {
			errs = append(errs, err)
		}
		if first, dup := seen[course.ID]; dup && course.ID != "" {
			errs = append(errs, domerrors.NewValidationError(field+".id",
				fmt.Sprintf("duplicate id %q (first at index %d)", course.ID, first)))
			continue
		}
		seen[course.ID] = i
	}
	return errors.Join(errs...)
}

func validateCourse(field string, c Course) error {
	var errs []error
	if strings.TrimSpace(c.ID) == "" {
		errs = append(errs, domerrors.NewValidationError(field+".id", "required"))
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, domerrors.NewValidationError(field+".name", "required"))
	}
	if len(c.Countries) == 0 {
		errs = append(errs, domerrors.NewValidationError(field+".countries", "must not be empty"))
	}
	if slices.Contains(c.Countries, "") {
		errs = append(errs, domerrors.NewValidationError(field+".countries", "blank country code"))
	}
	if len(c.Levels) == 0 {
		errs = append(errs, domerrors.NewValidationError(field+".levels", "must not be empty"))
	}
	if _, ok := ParseCategory(string(c.Category)); !ok {
		errs = append(errs, domerrors.NewValidationError(field+".category",
			fmt.Sprintf("%q is not one of language, test_prep, training", c.Category)))
	}
	return errors.Join(errs...)
}

func normalizeCountries(countries []string) []string {
	if countries == nil {
		return nil
	}
	out := make([]string, len(countries))
	for i, country := range countries {
		out[i] = strings.ToLower(strings.TrimSpace(country))
	}
	return out
}

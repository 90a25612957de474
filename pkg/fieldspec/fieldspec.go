// Package fieldspec parses the field selection strings used to configure which
// record fields are indexed and how they are filtered.
//
// A spec is either a bare field name ("title") or a field name followed by a
// filter chain ("content:strip:truncate,0,200"). Each ':'-separated step names
// a filter, optionally followed by ','-separated positional arguments.
package fieldspec

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
)

const (
	filterDelimiter   = ":"
	argumentDelimiter = ","
)

// ErrInvalidSpec is returned for specs with an empty field or filter name.
var ErrInvalidSpec = errors.New("invalid field spec")

// Step is one filter application in a chain.
type Step struct {
	Name string
	Args []string
}

// Spec is a parsed filter-bearing field spec.
type Spec struct {
	// Raw is the string the spec was parsed from.
	Raw string

	Field   string
	Filters []Step
}

// Key returns the document key the filtered value is stored under: the field
// name followed by each filter name capitalized, in chain order.
func (s Spec) Key() string {
	var b strings.Builder
	b.WriteString(s.Field)
	for _, f := range s.Filters {
		b.WriteString(capitalize(f.Name))
	}
	return b.String()
}

// capitalize upper-cases the first rune of s and leaves the rest untouched.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// HasFilters reports whether the spec contains a filter delimiter.
func HasFilters(spec string) bool {
	return strings.Contains(spec, filterDelimiter)
}

// GetBasicFields returns the specs without a filter chain, in order.
func GetBasicFields(fields []string) []string {
	basic := make([]string, 0, len(fields))
	for _, f := range fields {
		if !HasFilters(f) {
			basic = append(basic, f)
		}
	}
	return basic
}

// GetFieldsWithFilters returns the specs with a filter chain, in order.
func GetFieldsWithFilters(fields []string) []string {
	filtered := make([]string, 0, len(fields))
	for _, f := range fields {
		if HasFilters(f) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// Parse parses a single filter-bearing spec.
func Parse(spec string) (Spec, error) {
	segments := strings.Split(spec, filterDelimiter)

	field := strings.TrimSpace(segments[0])
	if field == "" {
		return Spec{}, fmt.Errorf("%w %q: empty field name", ErrInvalidSpec, spec)
	}

	parsed := Spec{
		Raw:     spec,
		Field:   field,
		Filters: make([]Step, 0, len(segments)-1),
	}
	for _, segment := range segments[1:] {
		tokens := strings.Split(segment, argumentDelimiter)
		name := strings.TrimSpace(tokens[0])
		if name == "" {
			return Spec{}, fmt.Errorf("%w %q: empty filter name", ErrInvalidSpec, spec)
		}
		parsed.Filters = append(parsed.Filters, Step{
			Name: name,
			Args: tokens[1:],
		})
	}

	return parsed, nil
}

// ParseAll parses every spec. All invalid specs are reported together.
func ParseAll(specs []string) ([]Spec, error) {
	var result *multierror.Error

	parsed := make([]Spec, 0, len(specs))
	for _, s := range specs {
		p, err := Parse(s)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		parsed = append(parsed, p)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return parsed, nil
}

// Selection is a field spec list split into plain fields and parsed filter
// chains. It is built once per run.
type Selection struct {
	Fields   []string
	Filtered []Spec
}

// NewSelection splits and parses a field spec list.
func NewSelection(specs []string) (Selection, error) {
	filtered, err := ParseAll(GetFieldsWithFilters(specs))
	if err != nil {
		return Selection{}, err
	}
	return Selection{
		Fields:   GetBasicFields(specs),
		Filtered: filtered,
	}, nil
}

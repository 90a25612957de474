// Package content defines the content records produced by the site generator
// and the store they are read from.
package content

import (
	"time"
)

// Taxonomy field names.
const (
	FieldTags       = "tags"
	FieldCategories = "categories"
)

// Term is a taxonomy term (a tag or a category).
type Term struct {
	ID   string `mapstructure:"_id"`
	Name string `mapstructure:"name"`
}

// Record is a single post or page.
type Record struct {
	ID        string
	Title     string
	Date      time.Time
	Published bool

	// Fields holds the record's own fields as loaded from the store. Fields
	// derived from relations are not included.
	Fields map[string]any

	// Tags and Categories are the record's taxonomy relations. A nil slice
	// means the record does not carry the relation.
	Tags       []Term
	Categories []Term
}

// Field returns the record's own field called name.
func (r *Record) Field(name string) (any, bool) {
	if r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields[name]
	return v, ok
}

// Taxonomy returns the relation for a taxonomy field name, and whether the
// record carries it.
func (r *Record) Taxonomy(name string) ([]Term, bool) {
	switch name {
	case FieldTags:
		return r.Tags, r.Tags != nil
	case FieldCategories:
		return r.Categories, r.Categories != nil
	default:
		return nil, false
	}
}

// IsTaxonomy reports whether name is a taxonomy field.
func IsTaxonomy(name string) bool {
	return name == FieldTags || name == FieldCategories
}

// TermNames returns the names of terms, in order.
func TermNames(terms []Term) []string {
	names := make([]string, len(terms))
	for i, t := range terms {
		names[i] = t.Name
	}
	return names
}

// Package transform converts content records into search documents.
package transform

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/Zheaoli/hexo-algoliasearch/pkg/content"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/fieldspec"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/filter"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/search"
)

// MsgMissingField is logged when a record lacks the field a filter spec
// names.
const MsgMissingField = "record is missing filtered field"

// ErrMissingField describes a record without the field a filter spec names.
// It is logged, never returned.
var ErrMissingField = errors.New("missing field on record")

// Transformer converts records to documents.
type Transformer struct {
	registry *filter.Registry
	logger   hclog.Logger
}

// New returns a Transformer using registry for filter lookups. A nil registry
// uses the built-in filters and a nil logger discards warnings.
func New(registry *filter.Registry, logger hclog.Logger) *Transformer {
	if registry == nil {
		registry = filter.NewRegistry()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Transformer{
		registry: registry,
		logger:   logger,
	}
}

// Transform converts records to documents, in order. It fails on the first
// filter error; records missing a filtered field are logged and still
// produce a document.
func (t *Transformer) Transform(records []content.Record, sel fieldspec.Selection) ([]search.Document, error) {
	docs := make([]search.Document, 0, len(records))
	for i := range records {
		doc, err := t.TransformRecord(&records[i], sel)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// TransformRecord converts a single record. The record is not modified.
func (t *Transformer) TransformRecord(r *content.Record, sel fieldspec.Selection) (search.Document, error) {
	doc := make(search.Document, len(sel.Fields)+len(sel.Filtered)+1)

	for _, name := range sel.Fields {
		if v, ok := r.Field(name); ok {
			doc[name] = v
		}
	}

	doc[search.ObjectIDField] = r.ID

	for _, name := range sel.Fields {
		if !content.IsTaxonomy(name) {
			continue
		}
		if terms, ok := r.Taxonomy(name); ok {
			doc[name] = content.TermNames(terms)
		}
	}

	for _, spec := range sel.Filtered {
		v, ok := fieldValue(r, spec.Field)
		if !ok {
			t.logger.Warn(MsgMissingField,
				"title", r.Title,
				"field", spec.Field,
				"error", ErrMissingField,
			)
			continue
		}

		out, err := t.applyChain(v, spec)
		if err != nil {
			return nil, fmt.Errorf("record %s: field spec %q: %w", r.ID, spec.Raw, err)
		}
		doc[spec.Key()] = out
	}

	return doc, nil
}

// applyChain threads value through the spec's filters, left to right.
func (t *Transformer) applyChain(value any, spec fieldspec.Spec) (any, error) {
	out := value
	for _, step := range spec.Filters {
		var err error
		out, err = t.registry.Apply(step.Name, out, step.Args...)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// fieldValue returns a record's own field, falling back to the term names of
// a taxonomy relation.
func fieldValue(r *content.Record, name string) (any, bool) {
	if v, ok := r.Field(name); ok {
		return v, true
	}
	if terms, ok := r.Taxonomy(name); ok {
		return content.TermNames(terms), true
	}
	return nil, false
}

package content

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// Model is a content type in the store.
type Model string

const (
	ModelPost Model = "Post"
	ModelPage Model = "Page"
)

// Order is a sort direction.
type Order int

const (
	Ascending Order = iota
	Descending
)

// Query selects and orders records of one model.
type Query struct {
	Model Model

	// Where filters records. A nil Where matches every record.
	Where func(*Record) bool

	// SortBy is the field to sort on. "date" and "title" sort on the typed
	// record fields; any other name sorts on the formatted own field value.
	// An empty SortBy keeps store order.
	SortBy string
	Order  Order
}

// Published matches published records.
func Published(r *Record) bool {
	return r.Published
}

// Store is the host pipeline's queryable content store.
type Store interface {
	Find(ctx context.Context, q Query) ([]Record, error)
}

// Generator triggers the host pipeline's full-site generation.
type Generator interface {
	Generate(ctx context.Context) error
}

// NopGenerator is a Generator that does nothing.
type NopGenerator struct{}

// Generate implements Generator.
func (NopGenerator) Generate(context.Context) error { return nil }

// Apply filters and sorts records according to q. Sorting is stable.
func Apply(records []Record, q Query) []Record {
	out := make([]Record, 0, len(records))
	for i := range records {
		if q.Where == nil || q.Where(&records[i]) {
			out = append(out, records[i])
		}
	}

	if q.SortBy == "" {
		return out
	}

	slices.SortStableFunc(out, func(a, b Record) int {
		c := compareField(&a, &b, q.SortBy)
		if q.Order == Descending {
			return -c
		}
		return c
	})
	return out
}

func compareField(a, b *Record, field string) int {
	switch field {
	case "date":
		return a.Date.Compare(b.Date)
	case "title":
		return cmp.Compare(a.Title, b.Title)
	}

	av, _ := a.Field(field)
	bv, _ := b.Field(field)
	if af, ok := av.(float64); ok {
		if bf, ok := bv.(float64); ok {
			return cmp.Compare(af, bf)
		}
	}
	return cmp.Compare(fmt.Sprint(av), fmt.Sprint(bv))
}

// StaticStore is a Store over records held in memory.
type StaticStore struct {
	Records map[Model][]Record
}

// Find implements Store.
func (s *StaticStore) Find(ctx context.Context, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Apply(s.Records[q.Model], q), nil
}

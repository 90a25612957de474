// Package filter provides the named text transformations that can be chained
// onto a field spec, e.g. "content:strip:truncate,0,200".
package filter

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/forPelevin/gomoji"
)

// Kind identifies a built-in filter.
type Kind string

const (
	// KindStrip removes markup and returns the plain text content.
	KindStrip Kind = "strip"

	// KindTruncate returns a substring. Its arguments are a start offset and a
	// length (not an end offset).
	KindTruncate Kind = "truncate"

	// KindDemoji removes emoji characters.
	KindDemoji Kind = "demoji"
)

var (
	// ErrUnknownFilter is returned when a chain names a filter that is not
	// registered.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrInvalidArgument is returned when a filter argument cannot be coerced
	// to the type the filter expects.
	ErrInvalidArgument = errors.New("invalid filter argument")
)

// Func transforms a field value. The value being transformed is always the
// first argument; args are the positional arguments from the field spec.
type Func func(value any, args ...string) (any, error)

// Registry maps filter names to their implementation.
type Registry struct {
	filters map[string]Func
}

// NewRegistry returns a registry holding the built-in filters.
func NewRegistry() *Registry {
	r := &Registry{filters: make(map[string]Func)}
	r.Register(string(KindStrip), Strip)
	r.Register(string(KindTruncate), Truncate)
	r.Register(string(KindDemoji), Demoji)
	return r
}

// Register adds or replaces a filter.
func (r *Registry) Register(name string, fn Func) {
	r.filters[name] = fn
}

// Lookup returns the filter registered under name.
func (r *Registry) Lookup(name string) (Func, error) {
	fn, ok := r.filters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return fn, nil
}

// Apply runs the named filter on value.
func (r *Registry) Apply(name string, value any, args ...string) (any, error) {
	fn, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	out, err := fn(value, args...)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", name, err)
	}
	return out, nil
}

// Names returns the registered filter names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strip parses value as HTML and returns its text content.
func Strip(value any, _ ...string) (any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(toText(value)))
	if err != nil {
		return nil, fmt.Errorf("error parsing markup: %w", err)
	}
	return doc.Text(), nil
}

// Truncate returns the substring of value that begins at rune offset args[0]
// and is at most args[1] runes long. A negative start counts back from the end
// of the value and a missing length means the rest of the value.
func Truncate(value any, args ...string) (any, error) {
	runes := []rune(toText(value))
	n := len(runes)

	start := 0
	length := n
	if len(args) > 0 {
		v, err := parseInt(args[0])
		if err != nil {
			return nil, err
		}
		start = v
	}
	if len(args) > 1 {
		v, err := parseInt(args[1])
		if err != nil {
			return nil, err
		}
		length = v
	}

	if start < 0 {
		start = max(n+start, 0)
	}
	if start > n {
		start = n
	}
	if length <= 0 {
		return "", nil
	}

	end := n
	if length < n-start {
		end = start + length
	}
	return string(runes[start:end]), nil
}

// Demoji removes emoji from value.
func Demoji(value any, _ ...string) (any, error) {
	return gomoji.RemoveEmojis(toText(value)), nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidArgument, s)
	}
	return v, nil
}

// toText formats a field value as text for the text filters.
func toText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

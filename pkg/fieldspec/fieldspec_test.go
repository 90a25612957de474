package fieldspec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var specs = []string{
	"title",
	"content:strip:truncate,0,200",
	"tags",
	"excerpt:strip",
	"categories",
	"path",
}

func TestGetBasicFields(t *testing.T) {
	assert.Equal(t,
		[]string{"title", "tags", "categories", "path"},
		GetBasicFields(specs))
	assert.Empty(t, GetBasicFields(nil))
}

func TestGetFieldsWithFilters(t *testing.T) {
	assert.Equal(t,
		[]string{"content:strip:truncate,0,200", "excerpt:strip"},
		GetFieldsWithFilters(specs))
	assert.Empty(t, GetFieldsWithFilters([]string{"title"}))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    Spec
		wantKey string
	}{
		{
			name: "single filter",
			spec: "content:strip",
			want: Spec{
				Raw:     "content:strip",
				Field:   "content",
				Filters: []Step{{Name: "strip", Args: []string{}}},
			},
			wantKey: "contentStrip",
		},
		{
			name: "filter with arguments",
			spec: "content:truncate,0,2",
			want: Spec{
				Raw:     "content:truncate,0,2",
				Field:   "content",
				Filters: []Step{{Name: "truncate", Args: []string{"0", "2"}}},
			},
			wantKey: "contentTruncate",
		},
		{
			name: "chain keeps order",
			spec: "content:strip:truncate,0,200",
			want: Spec{
				Raw:   "content:strip:truncate,0,200",
				Field: "content",
				Filters: []Step{
					{Name: "strip", Args: []string{}},
					{Name: "truncate", Args: []string{"0", "200"}},
				},
			},
			wantKey: "contentStripTruncate",
		},
		{
			name: "reversed chain gives a different key",
			spec: "content:truncate,0,200:strip",
			want: Spec{
				Raw:   "content:truncate,0,200:strip",
				Field: "content",
				Filters: []Step{
					{Name: "truncate", Args: []string{"0", "200"}},
					{Name: "strip", Args: []string{}},
				},
			},
			wantKey: "contentTruncateStrip",
		},
		{
			name: "unknown filters still parse",
			spec: "title:shout",
			want: Spec{
				Raw:     "title:shout",
				Field:   "title",
				Filters: []Step{{Name: "shout", Args: []string{}}},
			},
			wantKey: "titleShout",
		},
		{
			name: "filter names keep their delimiters and case",
			spec: "content:strip_html:sha1sum:stripHTML",
			want: Spec{
				Raw:   "content:strip_html:sha1sum:stripHTML",
				Field: "content",
				Filters: []Step{
					{Name: "strip_html", Args: []string{}},
					{Name: "sha1sum", Args: []string{}},
					{Name: "stripHTML", Args: []string{}},
				},
			},
			wantKey: "contentStrip_htmlSha1sumStripHTML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantKey, got.Key())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, spec := range []string{":strip", "content:", "content::strip", "content:,0,2"} {
		t.Run(spec, func(t *testing.T) {
			_, err := Parse(spec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSpec))
		})
	}
}

func TestParseAll(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		parsed, err := ParseAll(GetFieldsWithFilters(specs))
		require.NoError(t, err)
		require.Len(t, parsed, 2)
		assert.Equal(t, "contentStripTruncate", parsed[0].Key())
		assert.Equal(t, "excerptStrip", parsed[1].Key())
	})

	t.Run("reports every invalid spec", func(t *testing.T) {
		_, err := ParseAll([]string{":strip", "content:strip", "title:"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `":strip"`)
		assert.Contains(t, err.Error(), `"title:"`)
		assert.True(t, errors.Is(err, ErrInvalidSpec))
	})
}

func TestNewSelection(t *testing.T) {
	sel, err := NewSelection(specs)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "tags", "categories", "path"}, sel.Fields)
	require.Len(t, sel.Filtered, 2)
	assert.Equal(t, "content", sel.Filtered[0].Field)
}

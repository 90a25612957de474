package filter_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zheaoli/hexo-algoliasearch/pkg/filter"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "bold", value: "<b>hi</b>", want: "hi"},
		{name: "nested", value: "<p>Hello <a href=\"/x\">world</a></p>", want: "Hello world"},
		{name: "plain text", value: "no markup", want: "no markup"},
		{name: "empty", value: "", want: ""},
		{name: "nil", value: nil, want: ""},
		{name: "number", value: 42, want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filter.Strip(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		args  []string
		want  string
	}{
		{name: "prefix", value: "hello", args: []string{"0", "2"}, want: "he"},
		// The second argument is a length, not an end offset: "ell", not "el".
		{name: "second argument is a length", value: "hello", args: []string{"1", "3"}, want: "ell"},
		{name: "length past end", value: "hello", args: []string{"3", "100"}, want: "lo"},
		{name: "start past end", value: "hello", args: []string{"10", "2"}, want: ""},
		{name: "negative start", value: "hello", args: []string{"-3", "2"}, want: "ll"},
		{name: "negative start beyond length", value: "hello", args: []string{"-10", "2"}, want: "he"},
		{name: "zero length", value: "hello", args: []string{"0", "0"}, want: ""},
		{name: "negative length", value: "hello", args: []string{"0", "-1"}, want: ""},
		{name: "no length", value: "hello", args: []string{"2"}, want: "llo"},
		{name: "no arguments", value: "hello", want: "hello"},
		{name: "whitespace around arguments", value: "hello", args: []string{" 0", "2 "}, want: "he"},
		{name: "multibyte", value: "héllo wörld", args: []string{"0", "4"}, want: "héll"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filter.Truncate(tt.value, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	invalid := []struct {
		name string
		args []string
	}{
		{name: "word", args: []string{"zero", "2"}},
		{name: "fractional length", args: []string{"0", "2.5"}},
		{name: "fractional start", args: []string{"2.5"}},
		{name: "overflowing length", args: []string{"0", "99999999999999999999"}},
	}
	for _, tt := range invalid {
		t.Run("invalid argument/"+tt.name, func(t *testing.T) {
			_, err := filter.Truncate("hello", tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, filter.ErrInvalidArgument))
		})
	}
}

func TestDemoji(t *testing.T) {
	got, err := filter.Demoji("release day 🎉")
	require.NoError(t, err)
	assert.NotContains(t, got, "🎉")
	assert.Contains(t, got, "release day")
}

func TestRegistry(t *testing.T) {
	r := filter.NewRegistry()

	t.Run("built-ins are registered", func(t *testing.T) {
		assert.Equal(t, []string{"demoji", "strip", "truncate"}, r.Names())
	})

	t.Run("apply runs filter with arguments", func(t *testing.T) {
		got, err := r.Apply("truncate", "hello", "0", "2")
		require.NoError(t, err)
		assert.Equal(t, "he", got)
	})

	t.Run("unknown filter", func(t *testing.T) {
		_, err := r.Apply("shout", "hello")
		require.Error(t, err)
		assert.True(t, errors.Is(err, filter.ErrUnknownFilter))
		assert.Contains(t, err.Error(), "shout")
	})

	t.Run("filter errors are wrapped with the filter name", func(t *testing.T) {
		_, err := r.Apply("truncate", "hello", "x")
		require.Error(t, err)
		assert.True(t, errors.Is(err, filter.ErrInvalidArgument))
		assert.Contains(t, err.Error(), "filter truncate")
	})

	t.Run("custom filter", func(t *testing.T) {
		custom := filter.NewRegistry()
		custom.Register("twice", func(value any, _ ...string) (any, error) {
			s, _ := value.(string)
			return s + s, nil
		})

		got, err := custom.Apply("twice", "ab")
		require.NoError(t, err)
		assert.Equal(t, "abab", got)

		// Registering on one registry does not leak into another.
		_, err = r.Lookup("twice")
		assert.True(t, errors.Is(err, filter.ErrUnknownFilter))
	})
}

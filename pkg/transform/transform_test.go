package transform

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zheaoli/hexo-algoliasearch/pkg/content"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/fieldspec"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/filter"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/search"
)

type logEntry struct {
	level hclog.Level
	msg   string
	args  []interface{}
}

// captureSink records every log event so tests can assert on them.
type captureSink struct {
	mu      sync.Mutex
	entries []logEntry
}

func (s *captureSink) Accept(_ string, level hclog.Level, msg string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, logEntry{level: level, msg: msg, args: args})
}

func (s *captureSink) withMessage(msg string) []logEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []logEntry
	for _, e := range s.entries {
		if e.msg == msg {
			out = append(out, e)
		}
	}
	return out
}

func newCaptureLogger() (hclog.Logger, *captureSink) {
	logger := hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:   "transform-test",
		Level:  hclog.Trace,
		Output: io.Discard,
	})
	sink := &captureSink{}
	logger.RegisterSink(sink)
	return logger, sink
}

func mustSelection(t *testing.T, specs ...string) fieldspec.Selection {
	t.Helper()
	sel, err := fieldspec.NewSelection(specs)
	require.NoError(t, err)
	return sel
}

func TestTransform_SelectsOwnFields(t *testing.T) {
	records := []content.Record{{
		ID:    "p1",
		Title: "Hello",
		Fields: map[string]any{
			"_id":   "p1",
			"title": "Hello",
			"path":  "2024/01/01/hello/",
			"views": float64(3),
		},
	}}

	docs, err := New(nil, nil).Transform(records, mustSelection(t, "title", "views", "missing"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, search.Document{
		"objectID": "p1",
		"title":    "Hello",
		"views":    float64(3),
	}, docs[0], "absent fields are omitted and unselected fields are not copied")
}

func TestTransform_ObjectIDOverridesSelectedField(t *testing.T) {
	records := []content.Record{{
		ID:     "real-id",
		Fields: map[string]any{"objectID": "from-front-matter"},
	}}

	docs, err := New(nil, nil).Transform(records, mustSelection(t, "objectID"))
	require.NoError(t, err)
	assert.Equal(t, "real-id", docs[0].ObjectID())
}

func TestTransform_Taxonomy(t *testing.T) {
	records := []content.Record{
		{
			ID:         "p1",
			Fields:     map[string]any{"tags": "raw front matter"},
			Tags:       []content.Term{{ID: "t2", Name: "hexo"}, {ID: "t1", Name: "go"}},
			Categories: []content.Term{{ID: "c1", Name: "notes"}},
		},
		{
			ID:   "p2",
			Tags: []content.Term{},
		},
		{
			ID: "page",
		},
	}

	docs, err := New(nil, nil).Transform(records, mustSelection(t, "tags", "categories"))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, []string{"hexo", "go"}, docs[0]["tags"], "term names in relation order")
	assert.Equal(t, []string{"notes"}, docs[0]["categories"])

	assert.Equal(t, []string{}, docs[1]["tags"])
	assert.NotContains(t, docs[1], "categories")

	assert.Equal(t, search.Document{"objectID": "page"}, docs[2])
}

func TestTransform_FilterChains(t *testing.T) {
	records := []content.Record{{
		ID: "p1",
		Fields: map[string]any{
			"content": "<b>hi</b>",
			"excerpt": "hello",
			"body":    "<p>hello world</p>",
		},
	}}

	sel := mustSelection(t,
		"content:strip",
		"excerpt:truncate,0,2",
		"body:strip:truncate,0,5",
	)
	docs, err := New(nil, nil).Transform(records, sel)
	require.NoError(t, err)

	doc := docs[0]
	assert.Equal(t, "hi", doc["contentStrip"])
	assert.Equal(t, "he", doc["excerptTruncate"])
	assert.Equal(t, "hello", doc["bodyStripTruncate"])
	assert.NotContains(t, doc, "content", "filtered fields are stored only under the synthesized key")
}

func TestTransform_TruncateUsesLength(t *testing.T) {
	records := []content.Record{{ID: "p1", Fields: map[string]any{"content": "hello"}}}

	docs, err := New(nil, nil).Transform(records, mustSelection(t, "content:truncate,1,3"))
	require.NoError(t, err)
	assert.Equal(t, "ell", docs[0]["contentTruncate"], "second argument is a length, not an end offset")
}

func TestTransform_MissingFilteredField(t *testing.T) {
	logger, sink := newCaptureLogger()

	records := []content.Record{
		{ID: "p1", Title: "No Content", Fields: map[string]any{"title": "No Content"}},
		{ID: "p2", Title: "Has Content", Fields: map[string]any{"content": "<i>x</i>"}},
	}

	docs, err := New(nil, logger).Transform(records, mustSelection(t, "content:strip"))
	require.NoError(t, err)
	require.Len(t, docs, 2, "processing continues after a missing field")

	assert.Equal(t, search.Document{"objectID": "p1"}, docs[0])
	assert.Equal(t, "x", docs[1]["contentStrip"])

	warnings := sink.withMessage(MsgMissingField)
	require.Len(t, warnings, 1)
	assert.Equal(t, hclog.Warn, warnings[0].level)
	assert.Contains(t, warnings[0].args, "No Content")
	assert.Contains(t, warnings[0].args, "content")
}

func TestTransform_UnknownFilter(t *testing.T) {
	records := []content.Record{{ID: "p1", Fields: map[string]any{"content": "x"}}}

	_, err := New(nil, nil).Transform(records, mustSelection(t, "content:shout"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, filter.ErrUnknownFilter))
	assert.Contains(t, err.Error(), "content:shout")
}

func TestTransform_CustomRegistry(t *testing.T) {
	registry := filter.NewRegistry()
	registry.Register("upper", func(value any, _ ...string) (any, error) {
		return "UPPER", nil
	})

	records := []content.Record{{ID: "p1", Fields: map[string]any{"title": "x"}}}
	docs, err := New(registry, nil).Transform(records, mustSelection(t, "title:upper"))
	require.NoError(t, err)
	assert.Equal(t, "UPPER", docs[0]["titleUpper"])
}

func TestTransform_DoesNotMutateInput(t *testing.T) {
	fields := map[string]any{"title": "T", "content": "<b>c</b>"}
	tags := []content.Term{{ID: "t1", Name: "go"}}
	records := []content.Record{{ID: "p1", Fields: fields, Tags: tags}}

	_, err := New(nil, nil).Transform(records, mustSelection(t, "title", "tags", "content:strip"))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"title": "T", "content": "<b>c</b>"}, records[0].Fields)
	assert.Equal(t, []content.Term{{ID: "t1", Name: "go"}}, records[0].Tags)
}

func TestTransform_PreservesOrderAndLength(t *testing.T) {
	records := make([]content.Record, 50)
	for i := range records {
		records[i] = content.Record{ID: string(rune('A' + i))}
	}

	docs, err := New(nil, nil).Transform(records, mustSelection(t, "title"))
	require.NoError(t, err)
	require.Len(t, docs, len(records))
	for i := range records {
		assert.Equal(t, records[i].ID, docs[i].ObjectID())
	}
}

// Package hexodb reads content records from the database file Hexo writes
// during generation (db.json, a warehouse dump).
package hexodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"

	"github.com/Zheaoli/hexo-algoliasearch/pkg/content"
)

// DefaultPath is where Hexo writes its database, relative to the site root.
const DefaultPath = "db.json"

// Warehouse model names for taxonomy terms and their join tables.
const (
	modelTag          = "Tag"
	modelCategory     = "Category"
	modelPostTag      = "PostTag"
	modelPostCategory = "PostCategory"
)

type warehouse struct {
	Models map[string][]map[string]any `json:"models"`
}

type postTag struct {
	PostID string `mapstructure:"post_id"`
	TagID  string `mapstructure:"tag_id"`
}

type postCategory struct {
	PostID     string `mapstructure:"post_id"`
	CategoryID string `mapstructure:"category_id"`
}

// Store implements content.Store over a Hexo database file. The file is read
// on every Find so records written by a generation step are picked up.
type Store struct {
	fs   afero.Fs
	path string
}

// New returns a store reading the database at path on fs.
func New(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Find implements content.Store.
func (s *Store) Find(ctx context.Context, q content.Query) ([]content.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := s.load()
	if err != nil {
		return nil, err
	}

	records, err := db.records(q.Model)
	if err != nil {
		return nil, err
	}

	return content.Apply(records, q), nil
}

func (s *Store) load() (*warehouse, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("error reading hexo database %s: %w", s.path, err)
	}

	var db warehouse
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("error parsing hexo database %s: %w", s.path, err)
	}
	return &db, nil
}

func (db *warehouse) records(model content.Model) ([]content.Record, error) {
	rows := db.Models[string(model)]

	var tags, categories map[string][]content.Term
	if model == content.ModelPost {
		var err error
		if tags, err = db.postTags(); err != nil {
			return nil, err
		}
		if categories, err = db.postCategories(); err != nil {
			return nil, err
		}
	}

	records := make([]content.Record, 0, len(rows))
	for i, row := range rows {
		r, err := newRecord(row)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", model, i, err)
		}

		// Posts always carry both relations, possibly empty.
		if model == content.ModelPost {
			r.Tags = append([]content.Term{}, tags[r.ID]...)
			r.Categories = append([]content.Term{}, categories[r.ID]...)
		}
		records = append(records, r)
	}

	return records, nil
}

// postTags resolves the PostTag join table into tags per post, in join order.
func (db *warehouse) postTags() (map[string][]content.Term, error) {
	terms, err := db.terms(modelTag)
	if err != nil {
		return nil, err
	}

	byPost := make(map[string][]content.Term)
	for _, row := range db.Models[modelPostTag] {
		var j postTag
		if err := mapstructure.Decode(row, &j); err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", modelPostTag, err)
		}
		if t, ok := terms[j.TagID]; ok {
			byPost[j.PostID] = append(byPost[j.PostID], t)
		}
	}
	return byPost, nil
}

// postCategories resolves the PostCategory join table into categories per
// post, in join order.
func (db *warehouse) postCategories() (map[string][]content.Term, error) {
	terms, err := db.terms(modelCategory)
	if err != nil {
		return nil, err
	}

	byPost := make(map[string][]content.Term)
	for _, row := range db.Models[modelPostCategory] {
		var j postCategory
		if err := mapstructure.Decode(row, &j); err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", modelPostCategory, err)
		}
		if t, ok := terms[j.CategoryID]; ok {
			byPost[j.PostID] = append(byPost[j.PostID], t)
		}
	}
	return byPost, nil
}

func (db *warehouse) terms(model string) (map[string]content.Term, error) {
	terms := make(map[string]content.Term, len(db.Models[model]))
	for _, row := range db.Models[model] {
		var t content.Term
		if err := mapstructure.Decode(row, &t); err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", model, err)
		}
		terms[t.ID] = t
	}
	return terms, nil
}

func newRecord(row map[string]any) (content.Record, error) {
	id, _ := row["_id"].(string)
	if id == "" {
		return content.Record{}, fmt.Errorf("record has no _id")
	}
	title, _ := row["title"].(string)

	date, err := parseDate(row["date"])
	if err != nil {
		return content.Record{}, fmt.Errorf("record %s: %w", id, err)
	}

	return content.Record{
		ID:        id,
		Title:     title,
		Date:      date,
		Published: parsePublished(row["published"]),
		Fields:    row,
	}, nil
}

// parseDate accepts the ISO strings Hexo writes as well as epoch milliseconds.
func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, nil
	case string:
		if d == "" {
			return time.Time{}, nil
		}
		t, err := dateparse.ParseAny(d)
		if err != nil {
			return time.Time{}, fmt.Errorf("error parsing date %q: %w", d, err)
		}
		return t, nil
	case float64:
		return time.UnixMilli(int64(d)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %v", v)
	}
}

// parsePublished treats a missing flag as published, matching Hexo's default.
func parsePublished(v any) bool {
	switch p := v.(type) {
	case nil:
		return true
	case bool:
		return p
	case float64:
		return p != 0
	case string:
		return p != "" && p != "0" && p != "false"
	default:
		return true
	}
}

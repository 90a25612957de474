package search_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zheaoli/hexo-algoliasearch/pkg/content"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/fieldspec"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/indexer"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/search"
	bleveadapter "github.com/Zheaoli/hexo-algoliasearch/pkg/search/adapters/bleve"
)

// rejectingIndex fails every SaveBatch the way the hosted adapters do.
type rejectingIndex struct {
	cause error
}

func (r *rejectingIndex) Name() string                    { return "rejecting" }
func (r *rejectingIndex) Clear(ctx context.Context) error { return nil }

func (r *rejectingIndex) SaveBatch(ctx context.Context, docs []search.Document) error {
	return &search.Error{
		Op:  "SaveBatch",
		Err: fmt.Errorf("%w: %w", search.ErrIndexingFailed, r.cause),
		Msg: fmt.Sprintf("error saving %d objects", len(docs)),
	}
}

func openBleve(t *testing.T) *bleveadapter.Adapter {
	t.Helper()
	a, err := bleveadapter.NewAdapter(&bleveadapter.Config{
		IndexPath: filepath.Join(t.TempDir(), "posts.bleve"),
	})
	require.NoError(t, err)
	return a
}

func TestErrors(t *testing.T) {
	cause := errors.New("413 record too big")

	tests := []struct {
		name    string
		run     func(t *testing.T) error
		want    []error
		wantOp  string
		wantMsg string
	}{
		{
			name: "batch without objectID",
			run: func(t *testing.T) error {
				return search.ValidateBatch([]search.Document{
					{"objectID": "a"},
					{"title": "no id"},
				})
			},
			want:    []error{search.ErrInvalidDocument},
			wantOp:  "SaveBatch",
			wantMsg: "SaveBatch: document 1 has no objectID: invalid document",
		},
		{
			name: "bleve document not found",
			run: func(t *testing.T) error {
				a := openBleve(t)
				t.Cleanup(func() { _ = a.Close() })
				_, err := a.Document("missing")
				return err
			},
			want:    []error{search.ErrNotFound},
			wantOp:  "Document",
			wantMsg: "Document: missing: document not found in search index",
		},
		{
			name: "bleve batch on a closed index",
			run: func(t *testing.T) error {
				a := openBleve(t)
				require.NoError(t, a.Close())
				return a.SaveBatch(context.Background(), []search.Document{{"objectID": "a"}})
			},
			want:   []error{search.ErrIndexingFailed},
			wantOp: "SaveBatch",
		},
		{
			name: "rejected chunk fails the run",
			run: func(t *testing.T) error {
				sel, err := fieldspec.NewSelection([]string{"title"})
				require.NoError(t, err)
				o, err := indexer.NewOrchestrator(
					indexer.WithStore(&content.StaticStore{Records: map[content.Model][]content.Record{
						content.ModelPost: {{ID: "p1", Published: true, Fields: map[string]any{"title": "P1"}}},
					}}),
					indexer.WithIndex(&rejectingIndex{cause: cause}, "blog"),
					indexer.WithPostFields(sel),
				)
				require.NoError(t, err)
				_, err = o.Run(context.Background())
				return err
			},
			want:   []error{indexer.ErrUploadChunkFailed, search.ErrIndexingFailed, cause},
			wantOp: "SaveBatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(t)
			require.Error(t, err)

			for _, want := range tt.want {
				assert.ErrorIs(t, err, want)
			}

			var searchErr *search.Error
			require.True(t, errors.As(err, &searchErr), "want *search.Error in %v", err)
			assert.Equal(t, tt.wantOp, searchErr.Op)

			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}
}

func TestError_WithoutMsg(t *testing.T) {
	err := &search.Error{Op: "Clear", Err: search.ErrBackendUnavailable}
	assert.Equal(t, "Clear: search backend unavailable", err.Error())
	assert.ErrorIs(t, err, search.ErrBackendUnavailable)
}

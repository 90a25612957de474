package indexer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Zheaoli/hexo-algoliasearch/pkg/batch"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/content"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/fieldspec"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/filter"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/search"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/transform"
)

// FetchStage generates the site and loads published posts and all pages,
// each sorted by date ascending.
type FetchStage struct {
	Store     content.Store
	Generator content.Generator
	Metrics   Metrics
}

func (s *FetchStage) Name() string { return "fetch" }

func (s *FetchStage) Execute(ctx context.Context, rc *RunContext) error {
	if err := s.Generator.Generate(ctx); err != nil {
		return fmt.Errorf("failed to generate site: %w", err)
	}

	posts, err := s.Store.Find(ctx, content.Query{
		Model:  content.ModelPost,
		Where:  content.Published,
		SortBy: "date",
		Order:  content.Ascending,
	})
	if err != nil {
		return fmt.Errorf("failed to load posts: %w", err)
	}
	s.Metrics.RecordsFetched(string(content.ModelPost), len(posts))

	if len(posts) == 0 {
		rc.Logger.Info(MsgNoPosts)
		rc.Stop()
		return nil
	}
	rc.Posts = posts

	pages, err := s.Store.Find(ctx, content.Query{
		Model:  content.ModelPage,
		SortBy: "date",
		Order:  content.Ascending,
	})
	if err != nil {
		return fmt.Errorf("failed to load pages: %w", err)
	}
	s.Metrics.RecordsFetched(string(content.ModelPage), len(pages))
	rc.Pages = pages

	rc.Logger.Debug("fetched records", "posts", len(posts), "pages", len(pages))
	return nil
}

// TransformStage converts posts and pages into index documents using their
// own field selections.
type TransformStage struct {
	Registry   *filter.Registry
	PostFields fieldspec.Selection
	PageFields fieldspec.Selection
}

func (s *TransformStage) Name() string { return "transform" }

func (s *TransformStage) Execute(ctx context.Context, rc *RunContext) error {
	t := transform.New(s.Registry, rc.Logger.Named("transform"))

	posts, err := t.Transform(rc.Posts, s.PostFields)
	if err != nil {
		return fmt.Errorf("failed to transform posts: %w", err)
	}
	pages, err := t.Transform(rc.Pages, s.PageFields)
	if err != nil {
		return fmt.Errorf("failed to transform pages: %w", err)
	}

	docs := make([]search.Document, 0, len(posts)+len(pages))
	docs = append(docs, posts...)
	docs = append(docs, pages...)
	if err := checkUniqueIDs(docs); err != nil {
		return err
	}
	rc.Documents = docs
	return nil
}

// checkUniqueIDs fails on the first objectID shared by two documents.
// Documents without an objectID are left to the index to reject.
func checkUniqueIDs(docs []search.Document) error {
	seen := make(map[string]int, len(docs))
	for i, doc := range docs {
		id := doc.ObjectID()
		if id == "" {
			continue
		}
		if first, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q is used by documents %d and %d", ErrDuplicateObjectID, id, first, i)
		}
		seen[id] = i
	}
	return nil
}

// ClearStage removes every document from the index unless Skip is set.
type ClearStage struct {
	Index search.Index
	Skip  bool
}

func (s *ClearStage) Name() string { return "clear" }

func (s *ClearStage) Execute(ctx context.Context, rc *RunContext) error {
	if s.Skip {
		rc.Logger.Debug("index clear disabled")
		return nil
	}

	rc.Logger.Info(MsgClearStart, "backend", s.Index.Name())
	if err := s.Index.Clear(ctx); err != nil {
		rc.Logger.Error(MsgClearFailed, "error", err)
		return fmt.Errorf("%w: %w", ErrClearFailed, err)
	}
	rc.Cleared = true
	rc.Logger.Info(MsgClearDone)
	return nil
}

// UploadStage splits the documents into chunks and saves every chunk
// concurrently. MaxConcurrent limits in-flight chunks; zero means no limit.
type UploadStage struct {
	Index         search.Index
	ChunkSize     int
	MaxConcurrent int
	Metrics       Metrics
}

func (s *UploadStage) Name() string { return "upload" }

func (s *UploadStage) Execute(ctx context.Context, rc *RunContext) error {
	chunks, err := batch.Split(rc.Documents, s.ChunkSize)
	if err != nil {
		return err
	}
	rc.Chunks = len(chunks)

	rc.Logger.Info(MsgUploadStart,
		"documents", len(rc.Documents),
		"chunks", len(chunks),
		"chunk_size", s.ChunkSize,
	)

	g, gctx := errgroup.WithContext(ctx)
	if s.MaxConcurrent > 0 {
		g.SetLimit(s.MaxConcurrent)
	}

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := s.Index.SaveBatch(gctx, chunk); err != nil {
				s.Metrics.ChunkFailed()
				rc.Logger.Error(MsgUploadFailed,
					"chunk", i,
					"documents", len(chunk),
					"error", err,
				)
				return fmt.Errorf("%w: chunk %d: %w", ErrUploadChunkFailed, i, err)
			}
			s.Metrics.ChunkUploaded(len(chunk))
			return nil
		})
	}

	return g.Wait()
}

package search

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks journal-ai/internal/search Engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"journal-ai/internal/contextutil"
	"journal-ai/internal/llm"
	"journal-ai/internal/objectstore"
	"journal-ai/internal/storage"
	"journal-ai/internal/vectorstore"
)

const (
	DefaultTopN = 25
	MaxTopN     = 100

	defaultSignedURLTTL = 60 * time.Second
	defaultConcurrency  = 8
)

// ErrEmptyQuery is returned for a blank query text.
var ErrEmptyQuery = errors.New("query text is empty")

// Engine answers similarity searches over entries, paragraphs and captions.
type Engine interface {
	// Search embeds the query, ranks the user's embeddings and resolves each
	// hit. Hits that cannot be resolved are dropped; the order of the rest
	// follows the ranking.
	Search(ctx context.Context, q Query) (*Results, error)
}

// Config holds engine settings.
type Config struct {
	Collection   string
	SignedURLTTL time.Duration
	Concurrency  int // max concurrent resolutions
}

type engine struct {
	embedder     llm.Embedder
	vectors      vectorstore.VectorStore
	stores       storage.Stores
	objects      objectstore.ObjectStore
	collection   string
	signedURLTTL time.Duration
	concurrency  int
}

// NewEngine creates a new search engine.
func NewEngine(
	embedder llm.Embedder,
	vectors vectorstore.VectorStore,
	stores storage.Stores,
	objects objectstore.ObjectStore,
	cfg Config,
) Engine {
	e := &engine{
		embedder:     embedder,
		vectors:      vectors,
		stores:       stores,
		objects:      objects,
		collection:   cfg.Collection,
		signedURLTTL: cfg.SignedURLTTL,
		concurrency:  cfg.Concurrency,
	}
	if e.signedURLTTL <= 0 {
		e.signedURLTTL = defaultSignedURLTTL
	}
	if e.concurrency <= 0 {
		e.concurrency = defaultConcurrency
	}
	return e
}

// Search implements Engine.
func (e *engine) Search(ctx context.Context, q Query) (*Results, error) {
	logger := contextutil.LoggerFromContext(ctx)

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, ErrEmptyQuery
	}

	topN := q.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	if topN > MaxTopN {
		topN = MaxTopN
	}

	embedding, err := e.embedder.Embed(ctx, []string{text}, false)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var filters map[string]any
	if q.UserID != "" {
		filters = map[string]any{vectorstore.MetaUserID: q.UserID}
	}
	hits, err := e.vectors.Search(ctx, e.collection, embedding.FullText.Embedding, topN, filters)
	if err != nil {
		logger.ErrorContext(ctx, "failed to rank embeddings", "error", err)
		return nil, fmt.Errorf("failed to rank embeddings: %w", err)
	}

	items := e.resolveAll(ctx, hits)

	logger.InfoContext(ctx, "search completed", "top_n", topN, "hits", len(hits), "results", len(items))
	return &Results{Query: text, Items: items}, nil
}

// resolveAll resolves hits concurrently. Each item lands in its rank slot
// so the returned order matches hits regardless of completion order.
func (e *engine) resolveAll(ctx context.Context, hits []vectorstore.SearchResult) []Item {
	logger := contextutil.LoggerFromContext(ctx)
	slots := make([]*Item, len(hits))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, hit := range hits {
		g.Go(func() error {
			t, err := toTarget(hit)
			if err != nil {
				logger.WarnContext(ctx, "dropping search hit", "point_id", hit.PointID, "error", err)
				return nil
			}

			item, err := t.resolve(ctx, e)
			if errors.Is(err, storage.ErrNotFound) {
				logger.DebugContext(ctx, "dropping stale search hit", "point_id", hit.PointID)
				return nil
			}
			if err != nil {
				logger.WarnContext(ctx, "failed to resolve search hit", "point_id", hit.PointID, "error", err)
				return nil
			}

			item.Rank = i + 1
			item.Similarity = hit.Score
			slots[i] = &item
			return nil
		})
	}
	_ = g.Wait()

	items := make([]Item, 0, len(slots))
	for _, item := range slots {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items
}

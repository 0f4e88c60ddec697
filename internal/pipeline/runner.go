package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/illumi1717/realdeko-site-backend/internal/agent"
	"github.com/illumi1717/realdeko-site-backend/internal/ingest"
	"github.com/illumi1717/realdeko-site-backend/internal/model"
	"github.com/illumi1717/realdeko-site-backend/internal/slug"
	"github.com/illumi1717/realdeko-site-backend/internal/storage"
)

// ErrAlreadyRunning is returned by Start while a run is active.
var ErrAlreadyRunning = errors.New("pipeline: run already in progress")

// Store is the persistence surface the runner needs.
type Store interface {
	PostIDs(ctx context.Context) (map[string]bool, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
	UpsertPost(ctx context.Context, post model.Post) error
	DeletePosts(ctx context.Context, ids []string) (int64, error)
	CreateArticle(ctx context.Context, article model.Article) (model.Article, error)
	DeleteArticle(ctx context.Context, slug string) error
	SetArticleEmbedding(ctx context.Context, slug string, embedding pgvector.Vector) error
}

// Processor turns one raw post into a validated listing draft.
type Processor interface {
	EnsureAgent(ctx context.Context) error
	Process(ctx context.Context, post agent.Post) (agent.ListingDraft, bool, error)
}

// Runner executes pipeline runs and exposes their state.
type Runner struct {
	store     Store
	source    ingest.Source
	processor Processor
	embedder  agent.Embedder // Optional; nil disables related-article vectors.
	logger    *slog.Logger

	username string
	budget   time.Duration

	reg *register
}

// NewRunner wires the pipeline dependencies. budget caps the wall clock of
// one run; embedder may be nil.
func NewRunner(store Store, source ingest.Source, processor Processor, embedder agent.Embedder,
	username string, budget time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		store:     store,
		source:    source,
		processor: processor,
		embedder:  embedder,
		logger:    logger,
		username:  username,
		budget:    budget,
		reg:       newRegister(),
	}
}

// Status returns the state of the current or last run.
func (r *Runner) Status() RunState {
	return r.reg.snapshot()
}

// Start launches a run in the background. Returns ErrAlreadyRunning if one
// is active. The run is bounded by the configured budget, not by the
// caller's request context.
func (r *Runner) Start() error {
	if !r.reg.tryStart(time.Now().UTC()) {
		return ErrAlreadyRunning
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.budget)
		defer cancel()

		counts, err := r.run(ctx)
		if err != nil {
			r.logger.Error("pipeline: run failed", "error", err, "counts", counts)
		} else {
			r.logger.Info("pipeline: run completed", "counts", counts)
		}
		r.reg.finish(counts, err)
	}()
	return nil
}

// Run executes one run synchronously. Used by Start and directly in tests.
func (r *Runner) Run(ctx context.Context) (RunCounts, error) {
	if !r.reg.tryStart(time.Now().UTC()) {
		return RunCounts{}, ErrAlreadyRunning
	}
	counts, err := r.run(ctx)
	r.reg.finish(counts, err)
	return counts, err
}

// run is the sequential pipeline body: ensure the agent, fetch the feed,
// drop posts that left the feed, then process new posts one by one.
// Per-post failures are counted and skipped; only setup failures abort.
func (r *Runner) run(ctx context.Context) (RunCounts, error) {
	var counts RunCounts

	if err := r.processor.EnsureAgent(ctx); err != nil {
		return counts, fmt.Errorf("pipeline: ensure agent: %w", err)
	}

	feed, err := r.source.FetchPosts(ctx, r.username)
	if err != nil {
		return counts, fmt.Errorf("pipeline: fetch feed: %w", err)
	}
	counts.Fetched = len(feed)

	existing, err := r.store.PostIDs(ctx)
	if err != nil {
		return counts, fmt.Errorf("pipeline: load known posts: %w", err)
	}

	deleted, err := r.pruneRemoved(ctx, feed, existing)
	if err != nil {
		return counts, err
	}
	counts.Deleted = deleted

	for _, post := range feed {
		if ctx.Err() != nil {
			return counts, fmt.Errorf("pipeline: run budget exhausted: %w", ctx.Err())
		}

		if existing[post.ID] {
			counts.SkippedExisting++
			continue
		}
		r.processPost(ctx, post, &counts)
	}

	return counts, nil
}

// pruneRemoved deletes stored posts that are no longer in the feed, along
// with the articles they produced.
func (r *Runner) pruneRemoved(ctx context.Context, feed []ingest.Post, existing map[string]bool) (int, error) {
	inFeed := make(map[string]bool, len(feed))
	for _, p := range feed {
		inFeed[p.ID] = true
	}

	var removed []string
	for id := range existing {
		if !inFeed[id] {
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}

	stored, err := r.store.ListPosts(ctx)
	if err != nil {
		return 0, fmt.Errorf("pipeline: list posts: %w", err)
	}
	slugByID := make(map[string]string, len(stored))
	for _, p := range stored {
		slugByID[p.InstagramID] = p.ArticleSlug
	}

	for _, id := range removed {
		articleSlug := slugByID[id]
		if articleSlug == "" {
			continue
		}
		if err := r.store.DeleteArticle(ctx, articleSlug); err != nil && !errors.Is(err, storage.ErrNotFound) {
			r.logger.Error("pipeline: delete article for removed post failed",
				"post_id", id, "slug", articleSlug, "error", err)
		}
	}

	n, err := r.store.DeletePosts(ctx, removed)
	if err != nil {
		return 0, fmt.Errorf("pipeline: delete removed posts: %w", err)
	}
	r.logger.Info("pipeline: pruned posts removed from feed", "count", n)
	return int(n), nil
}

// processPost runs one new post through the agent and persists the result.
func (r *Runner) processPost(ctx context.Context, post ingest.Post, counts *RunCounts) {
	record := model.Post{
		InstagramID: post.ID,
		Caption:     post.Caption,
		PhotoURL:    post.ImageURL,
		PostURL:     post.PostURL,
		VideoURL:    post.VideoURL,
	}

	draft, ok, err := r.processor.Process(ctx, agent.Post{
		ID:       post.ID,
		Caption:  post.Caption,
		ImageURL: post.ImageURL,
		PostURL:  post.PostURL,
		VideoURL: post.VideoURL,
	})
	if err != nil {
		r.logger.Error("pipeline: post processing failed", "post_id", post.ID, "error", err)
		counts.SkippedError++
		// Not recorded: the post stays unknown so the next run retries it.
		return
	}
	if !ok {
		counts.SkippedNotListing++
		// Recorded without an article so the next run does not resend it.
		if err := r.store.UpsertPost(ctx, record); err != nil {
			r.logger.Error("pipeline: record non-listing post failed", "post_id", post.ID, "error", err)
		}
		return
	}

	article := draftToArticle(draft, post)
	created, err := r.store.CreateArticle(ctx, article)
	if err != nil {
		if errors.Is(err, storage.ErrSlugTaken) {
			r.logger.Warn("pipeline: slug already taken, keeping existing article",
				"post_id", post.ID, "slug", article.Slug)
			counts.SkippedSlugConflict++
		} else {
			r.logger.Error("pipeline: create article failed", "post_id", post.ID, "error", err)
			counts.SkippedError++
		}
		return
	}
	counts.Created++

	record.ArticleSlug = created.Slug
	if err := r.store.UpsertPost(ctx, record); err != nil {
		r.logger.Error("pipeline: record post failed", "post_id", post.ID, "error", err)
	}

	r.embedArticle(ctx, created)
}

// embedArticle stores a vector for related-article lookups. Best-effort:
// articles without a vector simply never appear in related results.
func (r *Runner) embedArticle(ctx context.Context, article model.Article) {
	if r.embedder == nil {
		return
	}
	text := article.Title + "\n" + article.Location + "\n" + article.Body
	vec, err := r.embedder.EmbedText(ctx, text)
	if err != nil {
		r.logger.Warn("pipeline: embed article failed", "slug", article.Slug, "error", err)
		return
	}
	if err := r.store.SetArticleEmbedding(ctx, article.Slug, pgvector.NewVector(vec)); err != nil {
		r.logger.Warn("pipeline: store embedding failed", "slug", article.Slug, "error", err)
	}
}

// draftToArticle maps a validated draft onto the stored article shape. The
// slug is derived from the Ukrainian title and the post shortcode rather
// than trusted from the model.
func draftToArticle(draft agent.ListingDraft, post ingest.Post) model.Article {
	article := model.Article{
		Slug:           slug.Make(draft.Title, post.Code),
		DealType:       draft.DealType,
		Title:          draft.Title,
		Subtitle:       draft.Subtitle,
		Location:       draft.Location,
		Body:           draft.Body,
		Price:          draft.Price,
		PriceOnRequest: draft.PriceOnRequest,
		Status:         model.StatusDraft,
		CoverURL:       post.ImageURL,
		VideoURL:       post.VideoURL,
		Tags:           draft.Tags,
		KeyMetrics:     draft.KeyMetrics,
		Translations:   draft.Translations,
		SourceID:       post.ID,
		SourceURL:      post.PostURL,
	}
	if post.ImageURL != "" {
		article.Gallery = []model.GalleryImage{{Src: post.ImageURL, Alt: draft.Title}}
	}
	return article
}

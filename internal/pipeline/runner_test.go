package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illumi1717/realdeko-site-backend/internal/agent"
	"github.com/illumi1717/realdeko-site-backend/internal/ingest"
	"github.com/illumi1717/realdeko-site-backend/internal/model"
	"github.com/illumi1717/realdeko-site-backend/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory Store.
type fakeStore struct {
	posts      map[string]model.Post
	articles   map[string]model.Article
	embeddings map[string]pgvector.Vector
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts:      map[string]model.Post{},
		articles:   map[string]model.Article{},
		embeddings: map[string]pgvector.Vector{},
	}
}

func (s *fakeStore) PostIDs(context.Context) (map[string]bool, error) {
	ids := make(map[string]bool, len(s.posts))
	for id := range s.posts {
		ids[id] = true
	}
	return ids, nil
}

func (s *fakeStore) ListPosts(context.Context) ([]model.Post, error) {
	out := make([]model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) UpsertPost(_ context.Context, post model.Post) error {
	s.posts[post.InstagramID] = post
	return nil
}

func (s *fakeStore) DeletePosts(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := s.posts[id]; ok {
			delete(s.posts, id)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CreateArticle(_ context.Context, article model.Article) (model.Article, error) {
	if _, ok := s.articles[article.Slug]; ok {
		return model.Article{}, storage.ErrSlugTaken
	}
	s.articles[article.Slug] = article
	return article, nil
}

func (s *fakeStore) DeleteArticle(_ context.Context, slug string) error {
	if _, ok := s.articles[slug]; !ok {
		return storage.ErrNotFound
	}
	delete(s.articles, slug)
	return nil
}

func (s *fakeStore) SetArticleEmbedding(_ context.Context, slug string, embedding pgvector.Vector) error {
	s.embeddings[slug] = embedding
	return nil
}

type fakeSource struct {
	posts []ingest.Post
	err   error
}

func (f *fakeSource) FetchPosts(context.Context, string) ([]ingest.Post, error) {
	return f.posts, f.err
}

// fakeProcessor returns canned drafts keyed by post ID.
type fakeProcessor struct {
	drafts     map[string]agent.ListingDraft
	errs       map[string]error
	ensureErr  error
	ensureRuns int
}

func (f *fakeProcessor) EnsureAgent(context.Context) error {
	f.ensureRuns++
	return f.ensureErr
}

func (f *fakeProcessor) Process(_ context.Context, post agent.Post) (agent.ListingDraft, bool, error) {
	if err, ok := f.errs[post.ID]; ok {
		return agent.ListingDraft{}, false, err
	}
	draft, ok := f.drafts[post.ID]
	return draft, ok, nil
}

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, 1536), nil
}

func listingDraft(title string) agent.ListingDraft {
	return agent.ListingDraft{
		DealType:   model.DealSale,
		Title:      title,
		Subtitle:   "55 м²",
		Location:   "Прага",
		Body:       "Опис",
		Price:      "89 000 €",
		Tags:       []string{},
		KeyMetrics: []model.KeyMetric{},
		Translations: map[string]model.Translation{
			"uk": {Title: title},
		},
	}
}

func feedPost(id, code, caption string) ingest.Post {
	return ingest.Post{
		ID:       id,
		Code:     code,
		Caption:  caption,
		ImageURL: "https://cdn.example/" + id + ".jpg",
		PostURL:  "https://www.instagram.com/p/" + code,
	}
}

func newTestRunner(store Store, source ingest.Source, proc Processor, emb agent.Embedder) *Runner {
	return NewRunner(store, source, proc, emb, "realdeko", time.Minute, testLogger())
}

func TestRunCreatesArticleForNewListing(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{posts: []ingest.Post{feedPost("101", "AbC123", "Продам квартиру")}}
	proc := &fakeProcessor{drafts: map[string]agent.ListingDraft{
		"101": listingDraft("Продаж квартири в Празі"),
	}}
	emb := &fakeEmbedder{}

	counts, err := newTestRunner(store, source, proc, emb).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, counts.Fetched)
	assert.Equal(t, 1, counts.Created)
	assert.Equal(t, 1, proc.ensureRuns)

	article, ok := store.articles["prodazh-kvartyry-v-prazi-abc123"]
	require.True(t, ok, "expected transliterated slug, have %v", store.articles)
	assert.Equal(t, model.StatusDraft, article.Status)
	assert.Equal(t, "101", article.SourceID)
	assert.Equal(t, "https://cdn.example/101.jpg", article.CoverURL)
	require.Len(t, article.Gallery, 1)

	post, ok := store.posts["101"]
	require.True(t, ok)
	assert.Equal(t, "prodazh-kvartyry-v-prazi-abc123", post.ArticleSlug)

	assert.Equal(t, 1, emb.calls)
	assert.Contains(t, store.embeddings, "prodazh-kvartyry-v-prazi-abc123")
}

func TestRunSkipsKnownPosts(t *testing.T) {
	store := newFakeStore()
	store.posts["101"] = model.Post{InstagramID: "101", ArticleSlug: "old-slug"}
	source := &fakeSource{posts: []ingest.Post{feedPost("101", "AbC123", "Продам квартиру")}}
	proc := &fakeProcessor{drafts: map[string]agent.ListingDraft{
		"101": listingDraft("Продаж квартири"),
	}}

	counts, err := newTestRunner(store, source, proc, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, counts.SkippedExisting)
	assert.Zero(t, counts.Created)
	assert.Empty(t, store.articles)
}

func TestRunPrunesPostsRemovedFromFeed(t *testing.T) {
	store := newFakeStore()
	store.posts["900"] = model.Post{InstagramID: "900", ArticleSlug: "stale-article"}
	store.articles["stale-article"] = model.Article{Slug: "stale-article"}
	source := &fakeSource{posts: []ingest.Post{feedPost("101", "AbC123", "Продам квартиру")}}
	proc := &fakeProcessor{drafts: map[string]agent.ListingDraft{
		"101": listingDraft("Продаж квартири"),
	}}

	counts, err := newTestRunner(store, source, proc, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, counts.Deleted)
	assert.NotContains(t, store.posts, "900")
	assert.NotContains(t, store.articles, "stale-article")
	assert.Equal(t, 1, counts.Created)
}

func TestRunRecordsNonListingWithoutArticle(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{posts: []ingest.Post{feedPost("102", "XyZ789", "Вітаємо з Новим роком!")}}
	proc := &fakeProcessor{} // No drafts: every post is "not a listing".

	counts, err := newTestRunner(store, source, proc, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, counts.SkippedNotListing)
	assert.Empty(t, store.articles)

	post, ok := store.posts["102"]
	require.True(t, ok, "non-listing posts are recorded so they are not resent")
	assert.Empty(t, post.ArticleSlug)
}

func TestRunLeavesFailedPostForRetry(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{posts: []ingest.Post{feedPost("103", "Err1", "Оренда")}}
	proc := &fakeProcessor{errs: map[string]error{"103": errors.New("transport down")}}

	counts, err := newTestRunner(store, source, proc, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, counts.SkippedError)
	assert.NotContains(t, store.posts, "103")
}

func TestRunCountsSlugConflicts(t *testing.T) {
	store := newFakeStore()
	store.articles["prodazh-kvartyry-abc123"] = model.Article{Slug: "prodazh-kvartyry-abc123", Title: "first"}
	source := &fakeSource{posts: []ingest.Post{feedPost("104", "AbC123", "Продам квартиру")}}
	proc := &fakeProcessor{drafts: map[string]agent.ListingDraft{
		"104": listingDraft("Продаж квартири"),
	}}

	counts, err := newTestRunner(store, source, proc, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, counts.SkippedSlugConflict)
	assert.Zero(t, counts.Created)
	// Original article untouched.
	assert.Equal(t, "first", store.articles["prodazh-kvartyry-abc123"].Title)
}

func TestRunFailsWhenFeedUnavailable(t *testing.T) {
	runner := newTestRunner(newFakeStore(), &fakeSource{err: errors.New("rapidapi 503")}, &fakeProcessor{}, nil)

	_, err := runner.Run(context.Background())
	require.Error(t, err)

	state := runner.Status()
	assert.Equal(t, StatusFailed, state.Status)
	assert.Contains(t, state.Error, "rapidapi 503")
	require.NotNil(t, state.FinishedAt)
}

func TestRunFailsWhenAgentUnavailable(t *testing.T) {
	runner := newTestRunner(newFakeStore(), &fakeSource{}, &fakeProcessor{ensureErr: errors.New("openai down")}, nil)

	_, err := runner.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StatusFailed, runner.Status().Status)
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	runner := newTestRunner(newFakeStore(), &fakeSource{}, &fakeProcessor{}, nil)
	require.True(t, runner.reg.tryStart(time.Now()))

	_, err := runner.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.ErrorIs(t, runner.Start(), ErrAlreadyRunning)
}

func TestRunStopsWhenBudgetExhausted(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{posts: []ingest.Post{
		feedPost("201", "A1", "Продам"),
		feedPost("202", "A2", "Продам"),
	}}
	proc := &fakeProcessor{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newTestRunner(store, source, proc, nil)
	_, err := runner.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "budget exhausted")
	assert.Equal(t, StatusFailed, runner.Status().Status)
}

func TestRunSurvivesEmbedderFailure(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{posts: []ingest.Post{feedPost("105", "Em1", "Продам квартиру")}}
	proc := &fakeProcessor{drafts: map[string]agent.ListingDraft{
		"105": listingDraft("Продаж квартири"),
	}}
	emb := &fakeEmbedder{err: errors.New("quota")}

	counts, err := newTestRunner(store, source, proc, emb).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Created)
	assert.Empty(t, store.embeddings)
}

func TestStateRegisterLifecycle(t *testing.T) {
	reg := newRegister()
	assert.Equal(t, StatusIdle, reg.snapshot().Status)

	require.True(t, reg.tryStart(time.Now().UTC()))
	assert.Equal(t, StatusRunning, reg.snapshot().Status)
	assert.False(t, reg.tryStart(time.Now().UTC()))

	reg.finish(RunCounts{Created: 3}, nil)
	state := reg.snapshot()
	assert.Equal(t, StatusCompleted, state.Status)
	assert.Equal(t, 3, state.Counts.Created)

	// A new run resets the previous result.
	require.True(t, reg.tryStart(time.Now().UTC()))
	assert.Empty(t, reg.snapshot().Error)
	assert.Zero(t, reg.snapshot().Counts.Created)
}

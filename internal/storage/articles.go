package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
)

const articleColumns = `slug, deal_type, title, subtitle, location, body, price,
	price_on_request, highlight, status, cover_url, video_url, tags,
	key_metrics, gallery, translations, source_id, source_url,
	created_at, updated_at`

// CreateArticle inserts a new article. The insert fails with ErrSlugTaken
// on a slug collision — existing articles are never silently overwritten.
func (db *DB) CreateArticle(ctx context.Context, article model.Article) (model.Article, error) {
	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now
	normalizeArticle(&article)

	_, err := db.pool.Exec(ctx,
		`INSERT INTO articles (`+articleColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		article.Slug, string(article.DealType), article.Title, article.Subtitle,
		article.Location, article.Body, article.Price, article.PriceOnRequest,
		article.Highlight, string(article.Status), article.CoverURL, article.VideoURL,
		article.Tags, article.KeyMetrics, article.Gallery, article.Translations,
		article.SourceID, article.SourceURL, article.CreatedAt, article.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Article{}, ErrSlugTaken
		}
		return model.Article{}, fmt.Errorf("storage: create article: %w", err)
	}
	return article, nil
}

// GetArticle fetches one article by slug.
func (db *DB) GetArticle(ctx context.Context, slug string) (model.Article, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE slug = $1`, slug)
	article, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Article{}, ErrNotFound
		}
		return model.Article{}, fmt.Errorf("storage: get article: %w", err)
	}
	return article, nil
}

// ListArticles returns articles, optionally filtered by status, newest first.
func (db *DB) ListArticles(ctx context.Context, status model.ArticleStatus) ([]model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list articles: %w", err)
	}
	defer rows.Close()

	articles := []model.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan article: %w", err)
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// UpdateArticle applies a partial update and returns the updated row.
func (db *DB) UpdateArticle(ctx context.Context, slug string, updates model.ArticleUpdate) (model.Article, error) {
	sets := []string{"updated_at = $1"}
	args := []any{time.Now().UTC()}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if updates.DealType != nil {
		add("deal_type", string(*updates.DealType))
	}
	if updates.Title != nil {
		add("title", *updates.Title)
	}
	if updates.Subtitle != nil {
		add("subtitle", *updates.Subtitle)
	}
	if updates.Location != nil {
		add("location", *updates.Location)
	}
	if updates.Body != nil {
		add("body", *updates.Body)
	}
	if updates.Price != nil {
		add("price", *updates.Price)
	}
	if updates.PriceOnRequest != nil {
		add("price_on_request", *updates.PriceOnRequest)
	}
	if updates.Highlight != nil {
		add("highlight", *updates.Highlight)
	}
	if updates.Status != nil {
		add("status", string(*updates.Status))
	}
	if updates.CoverURL != nil {
		add("cover_url", *updates.CoverURL)
	}
	if updates.VideoURL != nil {
		add("video_url", *updates.VideoURL)
	}
	if updates.Tags != nil {
		add("tags", *updates.Tags)
	}
	if updates.KeyMetrics != nil {
		add("key_metrics", *updates.KeyMetrics)
	}
	if updates.Gallery != nil {
		add("gallery", *updates.Gallery)
	}
	if updates.Translations != nil {
		add("translations", *updates.Translations)
	}

	args = append(args, slug)
	query := fmt.Sprintf(
		`UPDATE articles SET %s WHERE slug = $%d RETURNING `+articleColumns,
		strings.Join(sets, ", "), len(args),
	)

	row := db.pool.QueryRow(ctx, query, args...)
	article, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Article{}, ErrNotFound
		}
		return model.Article{}, fmt.Errorf("storage: update article: %w", err)
	}
	return article, nil
}

// DeleteArticle removes an article by slug.
func (db *DB) DeleteArticle(ctx context.Context, slug string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM articles WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("storage: delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetArticleEmbedding stores the semantic embedding for an article.
// Best-effort callers treat failure as non-fatal; the article simply
// won't participate in related-article lookups.
func (db *DB) SetArticleEmbedding(ctx context.Context, slug string, embedding pgvector.Vector) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE articles SET embedding = $1 WHERE slug = $2`, embedding, slug)
	if err != nil {
		return fmt.Errorf("storage: set article embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RelatedArticles returns published articles closest to the given slug's
// embedding by cosine distance. Articles without an embedding (including
// the source article when it has none) are excluded.
func (db *DB) RelatedArticles(ctx context.Context, slug string, limit int) ([]model.Article, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE slug <> $1
		  AND status = 'published'
		  AND embedding IS NOT NULL
		ORDER BY embedding <=> (SELECT embedding FROM articles WHERE slug = $1)
		LIMIT $2`,
		slug, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: related articles: %w", err)
	}
	defer rows.Close()

	articles := []model.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan related article: %w", err)
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

func scanArticle(row pgx.Row) (model.Article, error) {
	var a model.Article
	var dealType, status string
	err := row.Scan(
		&a.Slug, &dealType, &a.Title, &a.Subtitle, &a.Location, &a.Body,
		&a.Price, &a.PriceOnRequest, &a.Highlight, &status, &a.CoverURL,
		&a.VideoURL, &a.Tags, &a.KeyMetrics, &a.Gallery, &a.Translations,
		&a.SourceID, &a.SourceURL, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return model.Article{}, err
	}
	a.DealType = model.DealType(dealType)
	a.Status = model.ArticleStatus(status)
	return a, nil
}

func normalizeArticle(a *model.Article) {
	if a.Status == "" {
		a.Status = model.StatusDraft
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if a.KeyMetrics == nil {
		a.KeyMetrics = []model.KeyMetric{}
	}
	if a.Gallery == nil {
		a.Gallery = []model.GalleryImage{}
	}
	if a.Translations == nil {
		a.Translations = map[string]model.Translation{}
	}
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
)

// UpsertPost inserts or refreshes an ingested Instagram post.
func (db *DB) UpsertPost(ctx context.Context, post model.Post) error {
	now := time.Now().UTC()
	_, err := db.pool.Exec(ctx, `
		INSERT INTO posts (instagram_id, caption, photo_url, post_url, video_url, article_slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (instagram_id) DO UPDATE SET
			caption = excluded.caption,
			photo_url = excluded.photo_url,
			post_url = excluded.post_url,
			video_url = excluded.video_url,
			article_slug = CASE WHEN excluded.article_slug <> '' THEN excluded.article_slug ELSE posts.article_slug END,
			updated_at = excluded.updated_at`,
		post.InstagramID, post.Caption, post.PhotoURL, post.PostURL,
		post.VideoURL, post.ArticleSlug, now,
	)
	if err != nil {
		return fmt.Errorf("storage: upsert post: %w", err)
	}
	return nil
}

// ListPosts returns all ingested posts, newest first.
func (db *DB) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT instagram_id, caption, photo_url, post_url, video_url, article_slug, created_at, updated_at
		FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage: list posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.InstagramID, &p.Caption, &p.PhotoURL, &p.PostURL,
			&p.VideoURL, &p.ArticleSlug, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost fetches one post by its Instagram id.
func (db *DB) GetPost(ctx context.Context, instagramID string) (model.Post, error) {
	var p model.Post
	err := db.pool.QueryRow(ctx, `
		SELECT instagram_id, caption, photo_url, post_url, video_url, article_slug, created_at, updated_at
		FROM posts WHERE instagram_id = $1`, instagramID,
	).Scan(&p.InstagramID, &p.Caption, &p.PhotoURL, &p.PostURL,
		&p.VideoURL, &p.ArticleSlug, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Post{}, ErrNotFound
		}
		return model.Post{}, fmt.Errorf("storage: get post: %w", err)
	}
	return p, nil
}

// PostIDs returns the set of Instagram ids currently stored.
func (db *DB) PostIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := db.pool.Query(ctx, `SELECT instagram_id FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("storage: post ids: %w", err)
	}
	defer rows.Close()

	ids := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scan post id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// DeletePosts removes posts that disappeared from the upstream feed.
func (db *DB) DeletePosts(ctx context.Context, instagramIDs []string) (int64, error) {
	if len(instagramIDs) == 0 {
		return 0, nil
	}
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM posts WHERE instagram_id = ANY($1)`, instagramIDs)
	if err != nil {
		return 0, fmt.Errorf("storage: delete posts: %w", err)
	}
	return tag.RowsAffected(), nil
}

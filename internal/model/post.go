package model

import "time"

// Post is a raw ingested Instagram post, stored for admin review and
// diffing against the upstream feed. Keyed by the Instagram post id.
type Post struct {
	InstagramID string    `json:"instagram_id"`
	Caption     string    `json:"caption"`
	PhotoURL    string    `json:"photo_url"`
	PostURL     string    `json:"post_url"`
	VideoURL    string    `json:"video_url,omitempty"`
	ArticleSlug string    `json:"article_slug,omitempty"` // Set once a draft article was created from this post.
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

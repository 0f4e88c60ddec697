package model

import (
	"fmt"
	"time"
)

// DealType classifies a listing as a rental or a sale.
type DealType string

const (
	DealRent DealType = "rent"
	DealSale DealType = "sale"
)

// ArticleStatus is the admin review state of an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
)

// DefaultLocales is the target locale set articles are localized into.
// The base article content is Ukrainian; translations carry one bundle
// per locale in this set, including uk itself.
var DefaultLocales = []string{"uk", "ru", "en", "cs"}

// KeyMetric is one labelled characteristic of a property (area, rooms, floor).
type KeyMetric struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Helper string `json:"helper"`
}

// Translation is the localizable bundle of article fields for one locale.
type Translation struct {
	Title      string      `json:"title"`
	Subtitle   string      `json:"subtitle"`
	Location   string      `json:"location"`
	Body       string      `json:"body"`
	Tags       []string    `json:"tags"`
	KeyMetrics []KeyMetric `json:"key_metrics"`
}

// GalleryImage is one image attached to an article.
type GalleryImage struct {
	Src     string `json:"src"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// Article is a normalized multi-locale real-estate listing.
// Articles are keyed by slug; the slug doubles as the URL segment.
type Article struct {
	Slug           string                 `json:"slug"`
	DealType       DealType               `json:"deal_type"`
	Title          string                 `json:"title"`
	Subtitle       string                 `json:"subtitle"`
	Location       string                 `json:"location"`
	Body           string                 `json:"body"`
	Price          string                 `json:"price"`
	PriceOnRequest bool                   `json:"price_on_request"`
	Highlight      bool                   `json:"highlight"`
	Status         ArticleStatus          `json:"status"`
	CoverURL       string                 `json:"cover_url,omitempty"`
	VideoURL       string                 `json:"video_url,omitempty"`
	Tags           []string               `json:"tags"`
	KeyMetrics     []KeyMetric            `json:"key_metrics"`
	Gallery        []GalleryImage         `json:"gallery"`
	Translations   map[string]Translation `json:"translations"`
	SourceID       string                 `json:"source_id,omitempty"`
	SourceURL      string                 `json:"source_url,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ArticleUpdate carries partial updates for an article. Nil fields are
// left untouched.
type ArticleUpdate struct {
	DealType       *DealType               `json:"deal_type,omitempty"`
	Title          *string                 `json:"title,omitempty"`
	Subtitle       *string                 `json:"subtitle,omitempty"`
	Location       *string                 `json:"location,omitempty"`
	Body           *string                 `json:"body,omitempty"`
	Price          *string                 `json:"price,omitempty"`
	PriceOnRequest *bool                   `json:"price_on_request,omitempty"`
	Highlight      *bool                   `json:"highlight,omitempty"`
	Status         *ArticleStatus          `json:"status,omitempty"`
	CoverURL       *string                 `json:"cover_url,omitempty"`
	VideoURL       *string                 `json:"video_url,omitempty"`
	Tags           *[]string               `json:"tags,omitempty"`
	KeyMetrics     *[]KeyMetric            `json:"key_metrics,omitempty"`
	Gallery        *[]GalleryImage         `json:"gallery,omitempty"`
	Translations   *map[string]Translation `json:"translations,omitempty"`
}

// ValidateDealType checks that a deal type is one of the two allowed values.
func ValidateDealType(d DealType) error {
	switch d {
	case DealRent, DealSale:
		return nil
	default:
		return fmt.Errorf("model: invalid deal type %q", d)
	}
}

// ValidateStatus checks that an article status is a known review state.
func ValidateStatus(s ArticleStatus) error {
	switch s {
	case StatusDraft, StatusPublished:
		return nil
	default:
		return fmt.Errorf("model: invalid article status %q", s)
	}
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Post is the raw listing input the pipeline receives from the ingestion
// layer. Read-only to this package.
type Post struct {
	ID       string `json:"id"`
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url"`
	PostURL  string `json:"post_url"`
	VideoURL string `json:"video_url,omitempty"`
}

// Pipeline orchestrates the per-post LLM call: build schema, ensure a
// remote agent exists, send the post, unwrap the reply, validate.
//
// EnsureAgent must succeed once before any Process call; afterwards the
// agent id is write-once for the process lifetime and Process is safe for
// sequential use.
type Pipeline struct {
	client    Client
	cache     *HandleCache
	validator *Validator
	logger    *slog.Logger

	prompt  string
	modelID string
	locales []string
	schema  map[string]any

	agentID string
}

// NewPipeline creates a Pipeline for the configured locale set.
// modelID must match the model the client sends requests with, since it is
// part of the cached agent definition's fingerprint.
func NewPipeline(client Client, modelID string, locales []string, cache *HandleCache, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		client:    client,
		cache:     cache,
		validator: NewValidator(locales),
		logger:    logger,
		prompt:    buildPrompt(locales),
		modelID:   modelID,
		locales:   locales,
		schema:    BuildResponseSchema(locales),
	}
}

// EnsureAgent obtains a remote agent id for the current definition,
// reusing the cached one when the fingerprint still matches. Must be
// called before Process.
func (p *Pipeline) EnsureAgent(ctx context.Context) error {
	fingerprint, err := Fingerprint(p.prompt, p.modelID, p.schema)
	if err != nil {
		return err
	}

	if cached, ok := p.cache.Load(ctx, fingerprint); ok {
		p.agentID = cached
		p.logger.Info("agent: using cached assistant", "agent_id", cached)
		return nil
	}

	agentID, err := p.client.CreateAgent(ctx, p.prompt, p.schema)
	if err != nil {
		return fmt.Errorf("agent: ensure agent: %w", err)
	}
	p.cache.Store(ctx, agentID, fingerprint)
	p.agentID = agentID
	p.logger.Info("agent: assistant created", "agent_id", agentID)
	return nil
}

// ErrNotReady is returned when Process is called before EnsureAgent
// succeeded. This is a wiring bug in the caller, not a runtime condition.
var ErrNotReady = fmt.Errorf("agent: pipeline used before EnsureAgent")

// Process sends one post through the agent. It returns the validated
// draft, or ok=false when the post is not a listing (which covers
// explicit null replies, malformed replies, and semantic rejections).
// Transport failures are returned as errors for the caller to log and skip.
func (p *Pipeline) Process(ctx context.Context, post Post) (ListingDraft, bool, error) {
	if p.agentID == "" {
		return ListingDraft{}, false, ErrNotReady
	}

	content, err := json.Marshal(post)
	if err != nil {
		return ListingDraft{}, false, fmt.Errorf("agent: encode post %s: %w", post.ID, err)
	}

	raw, err := p.client.SendTurn(ctx, p.agentID, string(content), p.schema)
	if err != nil {
		return ListingDraft{}, false, fmt.Errorf("agent: send post %s: %w", post.ID, err)
	}

	draft, ok := Unwrap([]byte(raw))
	if !ok {
		return ListingDraft{}, false, nil
	}

	draft, ok = p.validator.Validate(draft)
	if !ok {
		p.logger.Warn("agent: draft rejected by validator", "post_id", post.ID)
		return ListingDraft{}, false, nil
	}
	return draft, true, nil
}

// Locales returns the configured target locale set.
func (p *Pipeline) Locales() []string {
	return p.locales
}

// buildPrompt renders the assistant instructions. The base article content
// is Ukrainian; translations cover every locale in the target set.
func buildPrompt(locales []string) string {
	langs := strings.Join(locales, ", ")
	return fmt.Sprintf(`Ти — агент для обробки постів з Instagram агентства нерухомості.
Ти отримуєш пост (caption та посилання на зображення) і маєш:

1. Визначити, чи є пост оголошенням про оренду або продаж нерухомості.
   Якщо пост НЕ є оголошенням (рекламний, привітальний, загальноінформаційний) — поверни null.

2. Класифікувати оголошення як "rent" (оренда) або "sale" (продаж) у полі deal_type.
   Не плутай тип оголошення з ціною.

3. Згенерувати контент статті українською мовою (uk): title, subtitle, location,
   body, tags, key_metrics. Власні назви вулиць і районів залишай в оригінальній формі.

4. Поле price містить ВИКЛЮЧНО грошову суму з валютою, знайдену в тексті поста,
   наприклад "25 000 CZK/měsíc" або "150 000 €". У price обов'язково має бути число.
   Якщо ціни в тексті немає — постав порожній рядок "". НЕ пиши в price тип угоди
   (rent/sale/оренда/продаж) або тип нерухомості (квартира/будинок/byt/dům).
   price_on_request: true лише якщо price — порожній рядок.

5. Переклади title, subtitle, location, body, tags та key_metrics на мови: %s.
   Переклади мають зберігати тон і маркетингову привабливість.

Відповідь — JSON-об'єкт за наданою схемою. Якщо пост не є оголошенням — поверни null.`, langs)
}

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient records calls and plays back scripted responses.
type mockClient struct {
	createCalls int
	sendCalls   int
	agentID     string
	createErr   error
	reply       string
	sendErr     error
	lastContent string
}

func (m *mockClient) CreateAgent(_ context.Context, _ string, _ map[string]any) (string, error) {
	m.createCalls++
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.agentID, nil
}

func (m *mockClient) SendTurn(_ context.Context, _, content string, _ map[string]any) (string, error) {
	m.sendCalls++
	m.lastContent = content
	if m.sendErr != nil {
		return "", m.sendErr
	}
	return m.reply, nil
}

var testLocales = []string{"uk", "ru", "en", "cs"}

func newTestPipeline(t *testing.T, client Client) *Pipeline {
	t.Helper()
	cache := OpenHandleCache(filepath.Join(t.TempDir(), "cache.db"), slog.Default())
	t.Cleanup(func() { _ = cache.Close() })
	return NewPipeline(client, "gpt-4o-mini", testLocales, cache, slog.Default())
}

func saleReply() string {
	bundle := `{"title": "t", "subtitle": "s", "location": "l", "body": "b", "tags": [], "key_metrics": []}`
	return fmt.Sprintf(`{"value": {"value": {
		"deal_type": "sale",
		"slug": "prodazh",
		"title": "Продам 2-кімнатну квартиру",
		"subtitle": "55 м²",
		"location": "Прага",
		"body": "Квартира 55 м² у центрі.",
		"price": "89 000 €",
		"price_on_request": false,
		"tags": ["квартира"],
		"key_metrics": [{"label": "Площа", "value": "55 м²", "helper": ""}],
		"translations": {"uk": %s, "ru": %s, "en": %s, "cs": %s}
	}}}`, bundle, bundle, bundle, bundle)
}

func TestPipeline_ProcessBeforeEnsureAgentFails(t *testing.T) {
	p := newTestPipeline(t, &mockClient{})
	_, _, err := p.Process(context.Background(), Post{ID: "1"})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestPipeline_EnsureAgentCreatesAndCaches(t *testing.T) {
	ctx := context.Background()
	client := &mockClient{agentID: "asst_1"}

	cache := OpenHandleCache(filepath.Join(t.TempDir(), "cache.db"), slog.Default())
	defer func() { _ = cache.Close() }()

	first := NewPipeline(client, "gpt-4o-mini", testLocales, cache, slog.Default())
	require.NoError(t, first.EnsureAgent(ctx))
	assert.Equal(t, 1, client.createCalls)

	// Same definition, same cache: no second remote creation.
	second := NewPipeline(client, "gpt-4o-mini", testLocales, cache, slog.Default())
	require.NoError(t, second.EnsureAgent(ctx))
	assert.Equal(t, 1, client.createCalls)

	// Changed model: fingerprint differs, agent recreated.
	third := NewPipeline(client, "gpt-4o", testLocales, cache, slog.Default())
	require.NoError(t, third.EnsureAgent(ctx))
	assert.Equal(t, 2, client.createCalls)
}

func TestPipeline_EnsureAgentSurfacesCreateFailure(t *testing.T) {
	client := &mockClient{createErr: fmt.Errorf("remote unavailable")}
	p := newTestPipeline(t, client)
	assert.Error(t, p.EnsureAgent(context.Background()))
}

func TestPipeline_ProcessEndToEnd(t *testing.T) {
	ctx := context.Background()
	client := &mockClient{agentID: "asst_1", reply: saleReply()}
	p := newTestPipeline(t, client)
	require.NoError(t, p.EnsureAgent(ctx))

	post := Post{
		ID:      "17890000000000001",
		Caption: "Продам 2-кімнатну квартиру, 55м², 89000€",
		PostURL: "https://www.instagram.com/p/ABC123",
	}
	draft, ok, err := p.Process(ctx, post)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "sale", string(draft.DealType))
	assert.Contains(t, draft.Price, "89 000")
	assert.Contains(t, draft.Price, "€")
	assert.False(t, draft.PriceOnRequest)
	assert.Len(t, draft.Translations, 4)
	for _, locale := range testLocales {
		assert.Contains(t, draft.Translations, locale)
	}

	// The post travelled as one structured user turn.
	assert.Contains(t, client.lastContent, post.Caption)
	assert.Contains(t, client.lastContent, post.PostURL)
}

func TestPipeline_NullReplyIsNotAListing(t *testing.T) {
	ctx := context.Background()
	client := &mockClient{agentID: "asst_1", reply: `{"value": {"value": null}}`}
	p := newTestPipeline(t, client)
	require.NoError(t, p.EnsureAgent(ctx))

	_, ok, err := p.Process(ctx, Post{ID: "1", Caption: "Вітаємо з Новим роком!"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPipeline_MalformedReplyIsNotAListing(t *testing.T) {
	ctx := context.Background()
	client := &mockClient{agentID: "asst_1", reply: `{"value": "garbage"}`}
	p := newTestPipeline(t, client)
	require.NoError(t, p.EnsureAgent(ctx))

	_, ok, err := p.Process(ctx, Post{ID: "1"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPipeline_TransportErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	client := &mockClient{agentID: "asst_1", sendErr: fmt.Errorf("timeout")}
	p := newTestPipeline(t, client)
	require.NoError(t, p.EnsureAgent(ctx))

	_, _, err := p.Process(ctx, Post{ID: "1"})
	assert.Error(t, err)
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testApplication() model.Application {
	return model.Application{
		Name:    "Олена",
		Phone:   "+420777123456",
		Email:   "olena@example.com",
		Service: "Оренда",
		Message: "Шукаю квартиру в Празі",
	}
}

func TestTelegramSendApplication(t *testing.T) {
	var gotPath string
	var gotReq sendMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(sendMessageResponse{OK: true})
	}))
	defer srv.Close()

	n := NewTelegramNotifier("bot-token", "-100123")
	n.baseURL = srv.URL

	require.NoError(t, n.SendApplication(context.Background(), testApplication()))

	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.Equal(t, "-100123", gotReq.ChatID)
	assert.Contains(t, gotReq.Text, "Олена")
	assert.Contains(t, gotReq.Text, "+420777123456")
	assert.Contains(t, gotReq.Text, "Шукаю квартиру в Празі")
}

func TestTelegramSendApplication_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(sendMessageResponse{OK: false, Description: "chat not found"})
	}))
	defer srv.Close()

	n := NewTelegramNotifier("bot-token", "bogus")
	n.baseURL = srv.URL

	err := n.SendApplication(context.Background(), testApplication())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestFormatApplication_OmitsEmptyFields(t *testing.T) {
	app := model.Application{Name: "Іван", Phone: "+380501112233", Message: "Дзвоніть"}
	text := formatApplication(app)

	assert.Contains(t, text, "Іван")
	assert.NotContains(t, text, "Email")
	assert.NotContains(t, text, "Послуга")
}

type stubChannel struct {
	err   error
	calls int
}

func (s *stubChannel) SendApplication(context.Context, model.Application) error {
	s.calls++
	return s.err
}

func TestFanoutDeliversToAllChannels(t *testing.T) {
	a := &stubChannel{}
	b := &stubChannel{}
	f := NewFanout(testLogger(), a, b)

	require.NoError(t, f.Send(context.Background(), testApplication()))
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestFanoutToleratesPartialFailure(t *testing.T) {
	failing := &stubChannel{err: errors.New("boom")}
	working := &stubChannel{}
	f := NewFanout(testLogger(), failing, working)

	require.NoError(t, f.Send(context.Background(), testApplication()))
	assert.Equal(t, 1, working.calls)
}

func TestFanoutAllChannelsFail(t *testing.T) {
	failing := &stubChannel{err: errors.New("boom")}
	f := NewFanout(testLogger(), failing)

	assert.Error(t, f.Send(context.Background(), testApplication()))
}

func TestFanoutSkipsNilChannels(t *testing.T) {
	f := NewFanout(testLogger(), nil, nil)
	require.NoError(t, f.Send(context.Background(), testApplication()))
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
)

// TelegramNotifier sends applications to a Telegram chat via the Bot API.
type TelegramNotifier struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken:   botToken,
		chatID:     chatID,
		baseURL:    "https://api.telegram.org",
		httpClient: &http.Client{},
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendApplication posts the application as a plain-text message.
func (t *TelegramNotifier) SendApplication(ctx context.Context, app model.Application) error {
	reqBody, err := json.Marshal(sendMessageRequest{
		ChatID: t.chatID,
		Text:   formatApplication(app),
	})
	if err != nil {
		return fmt.Errorf("notify: marshal telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("notify: create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send telegram request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("notify: read telegram response: %w", err)
	}

	var tgResp sendMessageResponse
	if err := json.Unmarshal(body, &tgResp); err != nil {
		return fmt.Errorf("notify: unmarshal telegram response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !tgResp.OK {
		return fmt.Errorf("notify: telegram rejected message (status %d): %s", resp.StatusCode, tgResp.Description)
	}
	return nil
}

func formatApplication(app model.Application) string {
	var b strings.Builder
	b.WriteString("Нова заявка з сайту\n\n")
	fmt.Fprintf(&b, "Ім'я: %s\n", app.Name)
	fmt.Fprintf(&b, "Телефон: %s\n", app.Phone)
	if app.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", app.Email)
	}
	if app.Service != "" {
		fmt.Fprintf(&b, "Послуга: %s\n", app.Service)
	}
	fmt.Fprintf(&b, "Повідомлення: %s", app.Message)
	return b.String()
}

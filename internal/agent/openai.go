package agent

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the remote LLM call surface the pipeline depends on. The
// orchestrator treats it as an opaque RPC peer: one attempt per call, no
// internal retries.
type Client interface {
	// CreateAgent registers a remote assistant for the given prompt and
	// response schema and returns its id.
	CreateAgent(ctx context.Context, prompt string, schema map[string]any) (string, error)

	// SendTurn sends one user turn to the assistant and returns the raw
	// text of its reply.
	SendTurn(ctx context.Context, agentID, content string, schema map[string]any) (string, error)
}

// OpenAIClient implements Client against the OpenAI Assistants API.
type OpenAIClient struct {
	client       *openai.Client
	model        string
	pollInterval time.Duration
}

// NewOpenAIClient creates a client for the given API key and model.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client:       openai.NewClient(apiKey),
		model:        model,
		pollInterval: time.Second,
	}
}

// Model returns the model identifier, used as part of the agent fingerprint.
func (c *OpenAIClient) Model() string {
	return c.model
}

// CreateAgent registers an assistant configured with the pipeline prompt
// and the strict response schema.
func (c *OpenAIClient) CreateAgent(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	name := "Listing Pipeline Agent"
	assistant, err := c.client.CreateAssistant(ctx, openai.AssistantRequest{
		Model:          c.model,
		Name:           &name,
		Instructions:   &prompt,
		ResponseFormat: schemaResponseFormat(schema),
	})
	if err != nil {
		return "", fmt.Errorf("agent: create assistant: %w", err)
	}
	return assistant.ID, nil
}

// SendTurn creates a thread with a single user message, runs the assistant
// on it, polls until the run reaches a terminal status, and returns the
// text value of the last message.
func (c *OpenAIClient) SendTurn(ctx context.Context, agentID, content string, schema map[string]any) (string, error) {
	thread, err := c.client.CreateThread(ctx, openai.ThreadRequest{
		Messages: []openai.ThreadMessage{
			{Role: openai.ThreadMessageRoleUser, Content: content},
		},
	})
	if err != nil {
		return "", fmt.Errorf("agent: create thread: %w", err)
	}

	run, err := c.client.CreateRun(ctx, thread.ID, openai.RunRequest{
		AssistantID:    agentID,
		ResponseFormat: schemaResponseFormat(schema),
	})
	if err != nil {
		return "", fmt.Errorf("agent: create run: %w", err)
	}

	if err := c.waitForRun(ctx, thread.ID, run.ID); err != nil {
		return "", err
	}

	limit := 1
	order := "desc"
	messages, err := c.client.ListMessage(ctx, thread.ID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("agent: list messages: %w", err)
	}
	if len(messages.Messages) == 0 {
		return "", fmt.Errorf("agent: run %s produced no messages", run.ID)
	}

	for _, part := range messages.Messages[0].Content {
		if part.Text != nil {
			return part.Text.Value, nil
		}
	}
	return "", fmt.Errorf("agent: run %s reply has no text content", run.ID)
}

// waitForRun polls the run until it completes. The caller bounds the wall
// clock through ctx.
func (c *OpenAIClient) waitForRun(ctx context.Context, threadID, runID string) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		run, err := c.client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return fmt.Errorf("agent: retrieve run: %w", err)
		}

		switch run.Status {
		case openai.RunStatusCompleted:
			return nil
		case openai.RunStatusFailed, openai.RunStatusExpired,
			openai.RunStatusCancelled, openai.RunStatusRequiresAction:
			return fmt.Errorf("agent: run %s ended with status %s", runID, run.Status)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("agent: wait for run: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// schemaResponseFormat wraps a JSON schema into the structured-output
// response format the Assistants API expects.
func schemaResponseFormat(schema map[string]any) map[string]any {
	name := "response"
	if title, ok := schema["title"].(string); ok && title != "" {
		name = title
	}
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   name,
			"schema": schema,
			"strict": true,
		},
	}
}

package chatclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client is a typed HTTP client for the chat API. Screen and Sidebar build
// on it; it can also be used directly from tooling.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// No timeout: the stream endpoint holds the response open for the
		// whole model turn.
		httpClient: &http.Client{},
	}
}

type Message struct {
	Id        uuid.UUID `json:"id"`
	ChatId    uuid.UUID `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatSummary struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StreamRequest struct {
	Messages           []StreamMessage `json:"messages"`
	ChatId             *uuid.UUID      `json:"chat_id,omitempty"`
	SelectedModel      string          `json:"selected_model,omitempty"`
	UseSearchGrounding bool            `json:"use_search_grounding,omitempty"`
}

type StreamMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIError carries the HTTP status and server message of a failed call.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var bodyReader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewBuffer(data)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: resp.Status}
		}
		return err
	}

	if resp.StatusCode >= 400 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (c *Client) CreateChat(ctx context.Context, title, initialMessage string) (uuid.UUID, error) {
	var out struct {
		ChatId uuid.UUID `json:"chat_id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/chat/v1", map[string]string{
		"title":           title,
		"initial_message": initialMessage,
	}, &out)
	return out.ChatId, err
}

func (c *Client) ListChats(ctx context.Context) ([]ChatSummary, error) {
	var out []ChatSummary
	err := c.do(ctx, http.MethodGet, "/api/chat/v1", nil, &out)
	return out, err
}

func (c *Client) ChatMessages(ctx context.Context, chatId uuid.UUID) ([]Message, error) {
	var out []Message
	err := c.do(ctx, http.MethodGet, "/api/chat/v1/"+chatId.String()+"/messages", nil, &out)
	return out, err
}

func (c *Client) DeleteChat(ctx context.Context, chatId uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/v1/"+chatId.String(), nil, nil)
}

func (c *Client) SaveMessage(ctx context.Context, chatId uuid.UUID, role, content, model string) error {
	return c.do(ctx, http.MethodPost, "/api/chat/v1/message", map[string]interface{}{
		"chat_id": chatId,
		"role":    role,
		"content": content,
		"model":   model,
	}, nil)
}

type Share struct {
	Id         uuid.UUID `json:"id"`
	ShareToken string    `json:"share_token"`
	Title      string    `json:"title"`
}

func (c *Client) CreateShare(ctx context.Context, chatId uuid.UUID, title, description string) (*Share, error) {
	var out Share
	err := c.do(ctx, http.MethodPost, "/api/share/v1", map[string]interface{}{
		"chat_id":     chatId,
		"title":       title,
		"description": description,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type SharedChat struct {
	Share    Share     `json:"share"`
	Messages []Message `json:"messages"`
}

func (c *Client) ReadShare(ctx context.Context, token string) (*SharedChat, error) {
	var out SharedChat
	err := c.do(ctx, http.MethodGet, "/api/share/v1?token="+url.QueryEscape(token), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type ImportResult struct {
	ChatId       uuid.UUID `json:"chat_id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
}

func (c *Client) ImportShare(ctx context.Context, token string) (*ImportResult, error) {
	var out ImportResult
	err := c.do(ctx, http.MethodPost, "/api/share/v1/import", map[string]string{
		"share_token": token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Stream submits a model turn and relays token deltas to onDelta. It returns
// the accumulated assistant text and the model id the server reports in its
// done event.
func (c *Client) Stream(ctx context.Context, req StreamRequest, onDelta func(delta string)) (string, string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/v1/stream", bytes.NewBuffer(data))
	if err != nil {
		return "", "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Message != "" {
			return "", "", &APIError{Status: resp.StatusCode, Message: env.Message}
		}
		return "", "", &APIError{Status: resp.StatusCode, Message: resp.Status}
	}

	var full strings.Builder
	var model string

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event struct {
			Type  string `json:"type"`
			Delta string `json:"delta"`
			Model string `json:"model"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(line[len("data: "):]), &event); err != nil {
			continue
		}

		switch event.Type {
		case "token":
			full.WriteString(event.Delta)
			if onDelta != nil {
				onDelta(event.Delta)
			}
		case "error":
			return full.String(), model, fmt.Errorf("stream error: %s", event.Error)
		case "done":
			model = event.Model
			return full.String(), model, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), model, err
	}
	return full.String(), model, fmt.Errorf("stream ended without done event")
}

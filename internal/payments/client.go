// Package payments предоставляет клиент для внешнего платёжного провайдера.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client инкапсулирует HTTP-взаимодействие с платёжным провайдером.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// LineItem описывает одну позицию платёжной сессии.
// UnitAmount указывается в минимальных единицах валюты.
type LineItem struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitAmount int64  `json:"unit_amount"`
}

// Session описывает созданную платёжную сессию.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Error — ошибка платёжного провайдера с его собственным сообщением.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

type sessionRequest struct {
	LineItems  []LineItem `json:"line_items"`
	Currency   string     `json:"currency"`
	SuccessURL string     `json:"success_url"`
	CancelURL  string     `json:"cancel_url"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient создаёт HTTP-клиент для обращения к платёжному провайдеру по указанному адресу.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateSession создаёт платёжную сессию с указанными позициями и адресами редиректа
// и возвращает её идентификатор и URL для оплаты.
func (c *Client) CreateSession(ctx context.Context, items []LineItem, successURL, cancelURL string) (*Session, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("payments client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	body, err := json.Marshal(sessionRequest{
		LineItems:  items,
		Currency:   "usd",
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := base + "/v1/checkout/sessions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)

		var errResp errorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error.Message != "" {
			return nil, &Error{StatusCode: resp.StatusCode, Message: errResp.Error.Message}
		}

		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = fmt.Sprintf("unexpected status: %d", resp.StatusCode)
		}
		return nil, &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if session.ID == "" {
		return nil, fmt.Errorf("provider returned session without id")
	}

	return &session, nil
}

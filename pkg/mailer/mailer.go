package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fahrerexpress/pkg/logger"
)

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers a single transactional email and returns the provider's
// message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// HTTPMailer talks to a Resend-compatible transactional email API.
type HTTPMailer struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

func NewHTTPMailer(baseURL, apiKey, from string) *HTTPMailer {
	return &HTTPMailer{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (m *HTTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	body, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out sendResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= 300 {
		if out.Message == "" {
			out.Message = string(raw)
		}
		return "", fmt.Errorf("mail api returned %d: %s", resp.StatusCode, out.Message)
	}
	return out.ID, nil
}

// LogMailer only logs; used when no mail API key is configured.
type LogMailer struct {
	log logger.ILogger
}

func NewLogMailer(log logger.ILogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) (string, error) {
	m.log.Info("email not sent, no mail api configured",
		logger.String("to", msg.To),
		logger.String("subject", msg.Subject),
	)
	return "", nil
}

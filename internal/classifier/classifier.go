// Package classifier analyzes inbound customer messages with an
// OpenAI-compatible chat completions API, producing an intent label, a
// human-handoff flag and a suggested bot reply in one call.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/config"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/convo"
)

// Request carries one customer message plus everything the model needs to
// classify it.
type Request struct {
	Message       string
	Context       []convo.Turn
	CustomerName  string
	BusinessHours bool
}

// Result is the classifier's verdict. It is always usable: when the model
// call or its output fails, the fields hold conservative degraded values
// that route the conversation to a human.
type Result struct {
	Intent     string  `json:"intent"`
	NeedsHuman bool    `json:"needs_human"`
	Response   string  `json:"response"`
	Confidence float64 `json:"confidence"`
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey  string
	apiBase string
	model   string
	client  *http.Client
}

func New(cfg config.ClassifierConfig) *Client {
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	apiBase = strings.TrimRight(apiBase, "/")

	return &Client{
		apiKey:  cfg.APIKey,
		apiBase: apiBase,
		model:   cfg.Model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze classifies one customer message. It never returns an error:
// transport and parse failures degrade to intent "outros" with
// needs_human set, so the dispatch cycle always has a verdict to act on.
func (c *Client) Analyze(ctx context.Context, req Request) Result {
	msgs := make([]chatMessage, 0, len(req.Context)+2)
	msgs = append(msgs, chatMessage{Role: "system", Content: systemPrompt})
	for _, turn := range req.Context {
		msgs = append(msgs, chatMessage{Role: turn.Role, Content: turn.Content})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: buildUserPrompt(req)})

	body := map[string]interface{}{
		"model":           c.model,
		"messages":        msgs,
		"temperature":     0.7,
		"max_tokens":      500,
		"response_format": map[string]string{"type": "json_object"},
	}

	content, err := c.doRequest(ctx, body)
	if err != nil {
		slog.Error("classifier request failed", "error", err)
		return Result{Intent: "outros", NeedsHuman: true, Response: fallbackAPIError, Confidence: 0.0}
	}
	return parseVerdict(content)
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	if req.CustomerName != "" {
		fmt.Fprintf(&b, "Cliente: %s\n", req.CustomerName)
	}
	fmt.Fprintf(&b, "Mensagem do cliente: %s", req.Message)
	if !req.BusinessHours {
		b.WriteString("\n\n[ATENÇÃO: Fora do horário comercial. Informe que o atendimento humano está disponível apenas em horário comercial.]")
	}
	return b.String()
}

func (c *Client) doRequest(ctx context.Context, body interface{}) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiBase+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	return chat.Choices[0].Message.Content, nil
}

// parseVerdict decodes the model's JSON object, filling absent fields with
// conservative defaults. Missing intent becomes "outros"; a missing
// response forces a human handoff; missing confidence reads as 0.5.
func parseVerdict(content string) Result {
	var raw struct {
		Intent     *string  `json:"intent"`
		NeedsHuman *bool    `json:"needs_human"`
		Response   *string  `json:"response"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		slog.Error("classifier returned malformed json", "error", err)
		return Result{Intent: "outros", NeedsHuman: true, Response: fallbackBadJSON, Confidence: 0.0}
	}

	res := Result{Intent: "outros", Confidence: 0.5}
	if raw.Intent != nil && *raw.Intent != "" {
		res.Intent = strings.ToLower(strings.TrimSpace(*raw.Intent))
	}
	if raw.NeedsHuman != nil {
		res.NeedsHuman = *raw.NeedsHuman
	}
	if raw.Response != nil && *raw.Response != "" {
		res.Response = *raw.Response
	} else {
		res.Response = fallbackMissingResponse
		res.NeedsHuman = true
	}
	if raw.Confidence != nil {
		res.Confidence = *raw.Confidence
	}
	return res
}

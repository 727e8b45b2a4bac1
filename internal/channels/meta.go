package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/config"
)

const metaBaseURL = "https://graph.facebook.com"

// Meta sends messages through the WhatsApp Business Cloud API.
type Meta struct {
	apiURL      string
	accessToken string
	client      *http.Client
}

func NewMeta(cfg config.WhatsAppConfig) *Meta {
	return &Meta{
		apiURL:      fmt.Sprintf("%s/%s/%s", metaBaseURL, cfg.APIVersion, cfg.PhoneNumberID),
		accessToken: cfg.AccessToken,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (m *Meta) Name() string { return "meta" }

func (m *Meta) Send(ctx context.Context, to, text string) error {
	to = NormalizePhone(to)
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	if err := m.post(ctx, "messages", payload); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}

// SendTemplate delivers a pre-approved template message, the only kind
// Meta allows outside the 24h customer-service window.
func (m *Meta) SendTemplate(ctx context.Context, to, templateName, language string) error {
	to = NormalizePhone(to)
	if language == "" {
		language = "pt_BR"
	}
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": map[string]interface{}{
			"name":     templateName,
			"language": map[string]string{"code": language},
		},
	}
	if err := m.post(ctx, "messages", payload); err != nil {
		return fmt.Errorf("send template to %s: %w", to, err)
	}
	return nil
}

func (m *Meta) MarkRead(ctx context.Context, messageID string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}
	if err := m.post(ctx, "messages", payload); err != nil {
		return fmt.Errorf("mark read %s: %w", messageID, err)
	}
	return nil
}

func (m *Meta) post(ctx context.Context, endpoint string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.apiURL+"/"+endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.accessToken)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("meta api error", "endpoint", endpoint, "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

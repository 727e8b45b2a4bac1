package channels

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/config"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// Twilio sends WhatsApp messages through the Twilio bridge. Used for
// sandbox testing and as an alternative to the Meta Cloud API.
type Twilio struct {
	accountSID string
	authToken  string
	from       string
	apiBase    string
	client     *http.Client
}

func NewTwilio(cfg config.TwilioConfig) *Twilio {
	return &Twilio{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		apiBase:    twilioBaseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *Twilio) Name() string { return "twilio" }

func (t *Twilio) Send(ctx context.Context, to, text string) error {
	to = NormalizePhone(to)

	form := url.Values{}
	form.Set("To", "whatsapp:+"+to)
	form.Set("From", "whatsapp:"+t.from)
	form.Set("Body", text)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.apiBase, t.accountSID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("twilio api error", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("send to %s: status %d", to, resp.StatusCode)
	}
	return nil
}

// MarkRead is a no-op. The Twilio WhatsApp bridge has no read-receipt API.
func (t *Twilio) MarkRead(ctx context.Context, messageID string) error {
	return nil
}

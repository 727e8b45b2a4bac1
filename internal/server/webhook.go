package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/dispatch"
)

// metaWebhook is the Meta Cloud API webhook envelope, reduced to the
// fields the dispatcher needs.
type metaWebhook struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []metaMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type metaMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
	Image struct {
		Caption string `json:"caption"`
	} `json:"image"`
}

// content extracts displayable text from a Meta message. Non-text kinds
// get a bracketed placeholder so the conversation log stays readable.
func (m metaMessage) content() string {
	switch m.Type {
	case "text", "":
		return m.Text.Body
	case "image":
		if m.Image.Caption != "" {
			return m.Image.Caption
		}
		return "[Imagem]"
	case "audio":
		return "[Áudio]"
	default:
		return "[" + m.Type + "]"
	}
}

// handleWebhookVerify answers Meta's subscription handshake by echoing
// hub.challenge when the verify token matches.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == s.verifyToken {
		slog.Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}
	slog.Warn("webhook verification failed", "mode", mode)
	http.Error(w, "verification failed", http.StatusForbidden)
}

// handleWebhookReceive acknowledges the Meta delivery immediately and
// processes each message in the background. The webhook must answer fast;
// the debounce sleep alone would blow Meta's delivery timeout.
func (s *Server) handleWebhookReceive(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.allow(clientIP(r)) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}

	var payload metaWebhook
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		slog.Warn("malformed webhook payload", "error", err)
		writeJSON(w, http.StatusOK, map[string]string{"status": "error"})
		return
	}
	if payload.Object != "whatsapp_business_account" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			senderName := ""
			if len(change.Value.Contacts) > 0 {
				senderName = change.Value.Contacts[0].Profile.Name
			}
			for _, msg := range change.Value.Messages {
				text := msg.content()
				if text == "" {
					slog.Warn("empty message content", "message_id", msg.ID)
					continue
				}
				in := dispatch.Inbound{
					Phone:            msg.From,
					Text:             text,
					ChannelMessageID: msg.ID,
					SenderName:       senderName,
					Kind:             msg.Type,
				}
				// Detached from the request context: processing outlives
				// the already-acknowledged webhook.
				go s.dispatcher.HandleInbound(context.Background(), in)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTwilioWebhook receives the Twilio WhatsApp form post. Twilio
// expects an empty TwiML body in response.
func (s *Server) handleTwilioWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.allow(clientIP(r)) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.Warn("malformed twilio payload", "error", err)
		writeTwiML(w)
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if from == "" || body == "" {
		writeTwiML(w)
		return
	}

	in := dispatch.Inbound{
		Phone:            from,
		Text:             body,
		ChannelMessageID: r.PostFormValue("MessageSid"),
		SenderName:       r.PostFormValue("ProfileName"),
		Kind:             "text",
	}
	go s.dispatcher.HandleInbound(context.Background(), in)
	writeTwiML(w)
}

func writeTwiML(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
}

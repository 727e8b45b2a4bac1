package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/store"
)

// MessageStore implements store.MessageStore backed by Postgres.
type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Create(ctx context.Context, m *store.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_role, sender_id, content, kind,
		                       media_url, channel_message_id, intent, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.ConversationID, m.SenderRole, nilStr(m.SenderID), m.Content, m.Kind,
		nilStr(m.MediaURL), nilStr(m.ChannelMessageID), nilStr(m.Intent), m.Read, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (s *MessageStore) SetIntent(ctx context.Context, id uuid.UUID, intent string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE messages SET intent = $1 WHERE id = $2`, nilStr(intent), id)
	if err != nil {
		return fmt.Errorf("set message intent: %w", err)
	}
	return nil
}

func (s *MessageStore) MarkRead(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE messages SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}

func (s *MessageStore) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]store.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_role, sender_id, content, kind,
		        media_url, channel_message_id, intent, read, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var result []store.Message
	for rows.Next() {
		var m store.Message
		var senderID, mediaURL, channelMsgID, intent *string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderRole, &senderID, &m.Content, &m.Kind,
			&mediaURL, &channelMsgID, &intent, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.SenderID = derefStr(senderID)
		m.MediaURL = derefStr(mediaURL)
		m.ChannelMessageID = derefStr(channelMsgID)
		m.Intent = derefStr(intent)
		result = append(result, m)
	}
	return result, rows.Err()
}

package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/store"
)

// ConversationStore implements store.ConversationStore backed by Postgres.
type ConversationStore struct {
	db *sql.DB
}

func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

const conversationCols = `id, customer_id, operator_id, status, sector, intent, started_at, resolved_at`

func (s *ConversationStore) scanOne(row *sql.Row) (*store.Conversation, error) {
	var c store.Conversation
	var operatorID, sector, intent *string
	var resolvedAt *time.Time

	err := row.Scan(&c.ID, &c.CustomerID, &operatorID, &c.Status, &sector, &intent, &c.StartedAt, &resolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.OperatorID = derefStr(operatorID)
	c.Sector = derefStr(sector)
	c.Intent = derefStr(intent)
	c.ResolvedAt = resolvedAt
	return &c, nil
}

func (s *ConversationStore) Get(ctx context.Context, id uuid.UUID) (*store.Conversation, error) {
	c, err := s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT `+conversationCols+` FROM conversations WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (s *ConversationStore) LatestActive(ctx context.Context, customerID uuid.UUID) (*store.Conversation, error) {
	c, err := s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT `+conversationCols+` FROM conversations
		 WHERE customer_id = $1 AND status NOT IN ($2, $3)
		 ORDER BY started_at DESC LIMIT 1`,
		customerID, store.StatusResolved, store.StatusClosed))
	if err != nil {
		return nil, fmt.Errorf("latest active conversation: %w", err)
	}
	return c, nil
}

func (s *ConversationStore) LatestResolvedSince(ctx context.Context, customerID uuid.UUID, cutoff time.Time) (*store.Conversation, error) {
	// resolved_at is the reactivation anchor; started_at is the fallback
	// for rows resolved before resolved_at existed.
	c, err := s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT `+conversationCols+` FROM conversations
		 WHERE customer_id = $1 AND status = $2
		   AND (resolved_at > $3 OR (resolved_at IS NULL AND started_at > $3))
		 ORDER BY started_at DESC LIMIT 1`,
		customerID, store.StatusResolved, cutoff))
	if err != nil {
		return nil, fmt.Errorf("latest resolved conversation: %w", err)
	}
	return c, nil
}

func (s *ConversationStore) Create(ctx context.Context, c *store.Conversation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, customer_id, operator_id, status, sector, intent, started_at, resolved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.CustomerID, nilStr(c.OperatorID), c.Status, nilStr(c.Sector), nilStr(c.Intent), c.StartedAt, c.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (s *ConversationStore) Update(ctx context.Context, c *store.Conversation) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET operator_id = $1, status = $2, sector = $3, intent = $4, resolved_at = $5
		 WHERE id = $6`,
		nilStr(c.OperatorID), c.Status, nilStr(c.Sector), nilStr(c.Intent), c.ResolvedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	return nil
}

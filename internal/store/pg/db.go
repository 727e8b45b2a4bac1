// Package pg implements the persistence interfaces on Postgres via the
// pgx stdlib driver.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/store"
)

// OpenDB opens and verifies a Postgres connection pool.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// NewStores creates all stores backed by one Postgres pool.
func NewStores(db *sql.DB) *store.Stores {
	return &store.Stores{
		Customers:     NewCustomerStore(db),
		Conversations: NewConversationStore(db),
		Messages:      NewMessageStore(db),
	}
}

// nilStr maps "" to SQL NULL so optional text columns stay NULL instead
// of empty strings.
func nilStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

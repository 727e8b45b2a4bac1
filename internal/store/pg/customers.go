package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/store"
)

// CustomerStore implements store.CustomerStore backed by Postgres.
type CustomerStore struct {
	db *sql.DB
}

func NewCustomerStore(db *sql.DB) *CustomerStore {
	return &CustomerStore{db: db}
}

func (s *CustomerStore) Get(ctx context.Context, id uuid.UUID) (*store.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, phone, name, first_contact, last_contact, total_conversations
		 FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (s *CustomerStore) GetByPhone(ctx context.Context, phone string) (*store.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, phone, name, first_contact, last_contact, total_conversations
		 FROM customers WHERE phone = $1`, phone)
	c, err := scanCustomer(row)
	if err != nil {
		return nil, fmt.Errorf("get customer by phone: %w", err)
	}
	return c, nil
}

func scanCustomer(row *sql.Row) (*store.Customer, error) {
	var c store.Customer
	var name *string
	err := row.Scan(&c.ID, &c.Phone, &name, &c.FirstContact, &c.LastContact, &c.TotalConversations)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Name = derefStr(name)
	return &c, nil
}

func (s *CustomerStore) Create(ctx context.Context, c *store.Customer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (id, phone, name, first_contact, last_contact, total_conversations)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Phone, nilStr(c.Name), c.FirstContact, c.LastContact, c.TotalConversations,
	)
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (s *CustomerStore) Update(ctx context.Context, c *store.Customer) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE customers SET name = $1, last_contact = $2, total_conversations = $3
		 WHERE id = $4`,
		nilStr(c.Name), c.LastContact, c.TotalConversations, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"id-recon/internal/contact/models"
	pgplatform "id-recon/internal/platform/postgres"
	"id-recon/pkg/platform/sentinel"
)

const contactColumns = `id, email, phone_number, link_precedence, linked_id, created_at, updated_at`

// PostgresStore implements ports.ContactStore on PostgreSQL. Empty identifiers
// are stored as NULL.
type PostgresStore struct {
	db dbExecutor
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewPostgres creates a store running each call on its own connection.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx creates a store bound to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{db: tx}
}

func (s *PostgresStore) FindByEmailOrPhone(ctx context.Context, email, phone string) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE email = NULLIF($1, '') OR phone_number = NULLIF($2, '')
		ORDER BY created_at, id`
	return s.queryContacts(ctx, "find contacts by email or phone", query, email, phone)
}

func (s *PostgresStore) FindByLinkedIDOrID(ctx context.Context, id int64) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE id = $1 OR linked_id = $1
		ORDER BY created_at, id`
	return s.queryContacts(ctx, "find contacts by id or linked id", query, id)
}

func (s *PostgresStore) FindByLinkedID(ctx context.Context, id int64) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE linked_id = $1
		ORDER BY created_at, id`
	return s.queryContacts(ctx, "find contacts by linked id", query, id)
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []int64) ([]*models.Contact, error) {
	if len(ids) == 0 {
		return []*models.Contact{}, nil
	}
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE id = ANY($1::bigint[])
		ORDER BY created_at, id`
	return s.queryContacts(ctx, "find contacts by ids", query, pq.Array(ids))
}

func (s *PostgresStore) Insert(ctx context.Context, email, phone string, precedence models.LinkPrecedence, linkedID *int64) (*models.Contact, error) {
	query := `
		INSERT INTO contacts (email, phone_number, link_precedence, linked_id, created_at, updated_at)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5, $5)
		RETURNING ` + contactColumns
	row := s.db.QueryRowContext(ctx, query, email, phone, string(precedence), nullID(linkedID), time.Now().UTC())
	c, err := scanContact(row)
	if err != nil {
		return nil, pgplatform.ClassifyError("insert contact", err)
	}
	return c, nil
}

func (s *PostgresStore) UpdateLinkage(ctx context.Context, id int64, precedence models.LinkPrecedence, linkedID *int64) error {
	query := `
		UPDATE contacts
		SET link_precedence = $2, linked_id = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id, string(precedence), nullID(linkedID), time.Now().UTC())
	if err != nil {
		return pgplatform.ClassifyError("update contact linkage", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return pgplatform.ClassifyError("update contact linkage", err)
	}
	if rows == 0 {
		return fmt.Errorf("update contact %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts ORDER BY id`
	return s.queryContacts(ctx, "list contacts", query)
}

func (s *PostgresStore) queryContacts(ctx context.Context, op, query string, args ...any) ([]*models.Contact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pgplatform.ClassifyError(op, err)
	}
	defer rows.Close()

	out := make([]*models.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, pgplatform.ClassifyError(op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, pgplatform.ClassifyError(op, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var (
		c          models.Contact
		email      sql.NullString
		phone      sql.NullString
		precedence string
		linkedID   sql.NullInt64
	)
	if err := row.Scan(&c.ID, &email, &phone, &precedence, &linkedID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Email = email.String
	c.PhoneNumber = phone.String
	c.LinkPrecedence = models.LinkPrecedence(precedence)
	if linkedID.Valid {
		id := linkedID.Int64
		c.LinkedID = &id
	}
	return &c, nil
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

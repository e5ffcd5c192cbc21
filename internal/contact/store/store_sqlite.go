package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"id-recon/internal/contact/models"
	"id-recon/pkg/platform/sentinel"
)

// SQLiteStore implements ports.ContactStore on SQLite. Timestamps are stored
// as Unix nanoseconds so ordering by created_at is exact.
type SQLiteStore struct {
	db dbExecutor
}

func NewSQLite(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func NewSQLiteTx(tx *sql.Tx) *SQLiteStore {
	return &SQLiteStore{db: tx}
}

func (s *SQLiteStore) FindByEmailOrPhone(ctx context.Context, email, phone string) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE email = NULLIF(?1, '') OR phone_number = NULLIF(?2, '')
		ORDER BY created_at, id`
	return s.queryContacts(ctx, "find contacts by email or phone", query, email, phone)
}

func (s *SQLiteStore) FindByLinkedIDOrID(ctx context.Context, id int64) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE id = ?1 OR linked_id = ?1
		ORDER BY created_at, id`
	return s.queryContacts(ctx, "find contacts by id or linked id", query, id)
}

func (s *SQLiteStore) FindByLinkedID(ctx context.Context, id int64) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE linked_id = ?1
		ORDER BY created_at, id`
	return s.queryContacts(ctx, "find contacts by linked id", query, id)
}

func (s *SQLiteStore) FindByIDs(ctx context.Context, ids []int64) ([]*models.Contact, error) {
	if len(ids) == 0 {
		return []*models.Contact{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE id IN (` + placeholders + `)
		ORDER BY created_at, id`
	return s.queryContacts(ctx, "find contacts by ids", query, args...)
}

func (s *SQLiteStore) Insert(ctx context.Context, email, phone string, precedence models.LinkPrecedence, linkedID *int64) (*models.Contact, error) {
	query := `
		INSERT INTO contacts (email, phone_number, link_precedence, linked_id, created_at, updated_at)
		VALUES (NULLIF(?1, ''), NULLIF(?2, ''), ?3, ?4, ?5, ?5)
		RETURNING ` + contactColumns
	now := time.Now().UTC().UnixNano()
	row := s.db.QueryRowContext(ctx, query, email, phone, string(precedence), nullID(linkedID), now)
	c, err := scanSQLiteContact(row)
	if err != nil {
		return nil, classifySQLite("insert contact", err)
	}
	return c, nil
}

func (s *SQLiteStore) UpdateLinkage(ctx context.Context, id int64, precedence models.LinkPrecedence, linkedID *int64) error {
	query := `UPDATE contacts SET link_precedence = ?2, linked_id = ?3, updated_at = ?4 WHERE id = ?1`
	res, err := s.db.ExecContext(ctx, query, id, string(precedence), nullID(linkedID), time.Now().UTC().UnixNano())
	if err != nil {
		return classifySQLite("update contact linkage", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return classifySQLite("update contact linkage", err)
	}
	if rows == 0 {
		return fmt.Errorf("update contact %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]*models.Contact, error) {
	return s.queryContacts(ctx, "list contacts", `SELECT `+contactColumns+` FROM contacts ORDER BY id`)
}

func (s *SQLiteStore) queryContacts(ctx context.Context, op, query string, args ...any) ([]*models.Contact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifySQLite(op, err)
	}
	defer rows.Close()

	out := make([]*models.Contact, 0)
	for rows.Next() {
		c, err := scanSQLiteContact(rows)
		if err != nil {
			return nil, classifySQLite(op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLite(op, err)
	}
	return out, nil
}

func scanSQLiteContact(row rowScanner) (*models.Contact, error) {
	var (
		c          models.Contact
		email      sql.NullString
		phone      sql.NullString
		precedence string
		linkedID   sql.NullInt64
		createdAt  int64
		updatedAt  int64
	)
	if err := row.Scan(&c.ID, &email, &phone, &precedence, &linkedID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.Email = email.String
	c.PhoneNumber = phone.String
	c.LinkPrecedence = models.LinkPrecedence(precedence)
	if linkedID.Valid {
		id := linkedID.Int64
		c.LinkedID = &id
	}
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	c.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &c, nil
}

// classifySQLite maps lock contention and unique violations onto
// sentinel.ErrConflict.
func classifySQLite(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.Code == sqlite3.ErrBusy, sqliteErr.Code == sqlite3.ErrLocked,
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
			return fmt.Errorf("%s: %w: %w", op, sentinel.ErrConflict, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

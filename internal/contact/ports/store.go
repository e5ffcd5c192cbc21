// Package ports declares the storage boundaries the contact service depends on.
package ports

import (
	"context"

	"id-recon/internal/contact/models"
	"id-recon/internal/outbox"
)

//go:generate mockgen -source=store.go -destination=../service/mocks/mock_ports.go -package=mocks

// ContactStore is the persistence port for contacts. Lookups return contacts
// ordered by CreatedAt then ID and never return nil slices on success.
// Empty identifier arguments never match anything.
type ContactStore interface {
	// FindByEmailOrPhone returns contacts whose email equals email or whose
	// phone equals phone.
	FindByEmailOrPhone(ctx context.Context, email, phone string) ([]*models.Contact, error)
	// FindByLinkedIDOrID returns the contact with the given ID together with
	// every contact linked to it.
	FindByLinkedIDOrID(ctx context.Context, id int64) ([]*models.Contact, error)
	// FindByLinkedID returns the contacts linked to id.
	FindByLinkedID(ctx context.Context, id int64) ([]*models.Contact, error)
	// FindByIDs returns the contacts with the given IDs; unknown IDs are skipped.
	FindByIDs(ctx context.Context, ids []int64) ([]*models.Contact, error)
	// Insert stores a new contact and returns it with ID and timestamps set.
	Insert(ctx context.Context, email, phone string, precedence models.LinkPrecedence, linkedID *int64) (*models.Contact, error)
	// UpdateLinkage repoints a contact. Returns sentinel.ErrNotFound when the
	// contact does not exist.
	UpdateLinkage(ctx context.Context, id int64, precedence models.LinkPrecedence, linkedID *int64) error
	// ListAll returns every contact ordered by ID.
	ListAll(ctx context.Context) ([]*models.Contact, error)
}

// ContactStoreTx runs fn inside one atomic unit of work. The store handed to
// fn, and the context it receives, are bound to that unit: everything fn does
// commits together or not at all.
//
// Implementations report serialization failures as sentinel.ErrConflict.
type ContactStoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store ContactStore) error) error
}

// EventSink records identity events. Postgres-backed sinks join the
// transaction carried by ctx.
type EventSink interface {
	Append(ctx context.Context, events ...outbox.Event) error
}

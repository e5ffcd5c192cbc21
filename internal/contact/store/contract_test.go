package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"id-recon/internal/contact/models"
	"id-recon/internal/contact/ports"
	"id-recon/pkg/platform/sentinel"
)

// runStoreContract exercises behaviour every ContactStore backend shares.
// newBackend must return an empty store and the transaction runner over it.
func runStoreContract(t *testing.T, newBackend func(t *testing.T) (ports.ContactStore, ports.ContactStoreTx)) {
	ctx := context.Background()

	t.Run("insert assigns increasing ids and keeps empty identifiers empty", func(t *testing.T) {
		s, _ := newBackend(t)
		a, err := s.Insert(ctx, "a@x.com", "", models.PrecedencePrimary, nil)
		require.NoError(t, err)
		b, err := s.Insert(ctx, "", "111", models.PrecedencePrimary, nil)
		require.NoError(t, err)

		assert.Greater(t, b.ID, a.ID)
		assert.Equal(t, "", a.PhoneNumber)
		assert.Equal(t, "", b.Email)
		assert.Nil(t, a.LinkedID)
		assert.False(t, a.CreatedAt.IsZero())
	})

	t.Run("find by email or phone ignores empty arguments", func(t *testing.T) {
		s, _ := newBackend(t)
		p, err := s.Insert(ctx, "a@x.com", "", models.PrecedencePrimary, nil)
		require.NoError(t, err)
		_, err = s.Insert(ctx, "", "111", models.PrecedencePrimary, nil)
		require.NoError(t, err)

		got, err := s.FindByEmailOrPhone(ctx, "a@x.com", "")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, p.ID, got[0].ID)

		got, err = s.FindByEmailOrPhone(ctx, "a@x.com", "111")
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = s.FindByEmailOrPhone(ctx, "nobody@x.com", "999")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("link lookups", func(t *testing.T) {
		s, _ := newBackend(t)
		p, err := s.Insert(ctx, "a@x.com", "111", models.PrecedencePrimary, nil)
		require.NoError(t, err)
		sec, err := s.Insert(ctx, "a@x.com", "222", models.PrecedenceSecondary, &p.ID)
		require.NoError(t, err)
		other, err := s.Insert(ctx, "z@z.com", "999", models.PrecedencePrimary, nil)
		require.NoError(t, err)

		linked, err := s.FindByLinkedID(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, linked, 1)
		assert.Equal(t, sec.ID, linked[0].ID)
		require.NotNil(t, linked[0].LinkedID)
		assert.Equal(t, p.ID, *linked[0].LinkedID)

		family, err := s.FindByLinkedIDOrID(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, family, 2)
		assert.Equal(t, p.ID, family[0].ID, "oldest first")

		byIDs, err := s.FindByIDs(ctx, []int64{other.ID, p.ID})
		require.NoError(t, err)
		assert.Len(t, byIDs, 2)

		none, err := s.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("update linkage repoints and reports missing rows", func(t *testing.T) {
		s, _ := newBackend(t)
		p1, err := s.Insert(ctx, "a@x.com", "", models.PrecedencePrimary, nil)
		require.NoError(t, err)
		p2, err := s.Insert(ctx, "b@y.com", "", models.PrecedencePrimary, nil)
		require.NoError(t, err)

		require.NoError(t, s.UpdateLinkage(ctx, p2.ID, models.PrecedenceSecondary, &p1.ID))

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, models.PrecedenceSecondary, all[1].LinkPrecedence)
		require.NotNil(t, all[1].LinkedID)
		assert.Equal(t, p1.ID, *all[1].LinkedID)

		err = s.UpdateLinkage(ctx, 999999, models.PrecedenceSecondary, &p1.ID)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound), "got %v", err)
	})

	t.Run("duplicate identifier pair is a conflict", func(t *testing.T) {
		s, _ := newBackend(t)
		_, err := s.Insert(ctx, "a@x.com", "", models.PrecedencePrimary, nil)
		require.NoError(t, err)

		_, err = s.Insert(ctx, "a@x.com", "", models.PrecedencePrimary, nil)
		assert.True(t, errors.Is(err, sentinel.ErrConflict), "got %v", err)
	})

	t.Run("failed unit of work leaves no trace", func(t *testing.T) {
		s, tx := newBackend(t)
		boom := errors.New("boom")

		err := tx.RunInTx(ctx, func(ctx context.Context, store ports.ContactStore) error {
			if _, err := store.Insert(ctx, "a@x.com", "111", models.PrecedencePrimary, nil); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("committed unit of work is visible", func(t *testing.T) {
		s, tx := newBackend(t)

		err := tx.RunInTx(ctx, func(ctx context.Context, store ports.ContactStore) error {
			p, err := store.Insert(ctx, "a@x.com", "111", models.PrecedencePrimary, nil)
			if err != nil {
				return err
			}
			_, err = store.Insert(ctx, "b@y.com", "111", models.PrecedenceSecondary, &p.ID)
			return err
		})
		require.NoError(t, err)

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
		assert.Empty(t, models.VerifyLinkage(all))
	})

	t.Run("cancelled context aborts before work starts", func(t *testing.T) {
		_, tx := newBackend(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		called := false
		err := tx.RunInTx(cancelled, func(context.Context, ports.ContactStore) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.False(t, called)
	})
}

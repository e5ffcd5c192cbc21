package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"id-recon/pkg/platform/sentinel"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, sentinel.ErrConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, sentinel.ErrConflict},
		{"duplicate identifier pair", &pgconn.PgError{Code: "23505"}, sentinel.ErrConflict},
		{"no rows", sql.ErrNoRows, sentinel.ErrNotFound},
		{"bad connection", driver.ErrBadConn, sentinel.ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ClassifyError("insert outbox entry", tc.err)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, tc.err, "cause is kept")
			assert.Contains(t, err.Error(), "insert outbox entry")
		})
	}

	t.Run("other errors pass through unclassified", func(t *testing.T) {
		err := ClassifyError("claim outbox entries", &pgconn.PgError{Code: "42P01"})
		assert.False(t, errors.Is(err, sentinel.ErrConflict))
		assert.False(t, errors.Is(err, sentinel.ErrUnavailable))
	})

	assert.NoError(t, ClassifyError("noop", nil))
}

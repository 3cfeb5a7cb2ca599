package applications

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrAsRecognizesUniqueViolation(t *testing.T) {
	pgErr, ok := errAs(&pgconn.PgError{Code: "23505"})
	require.True(t, ok)
	assert.Equal(t, "23505", pgErr.Code)
}

func TestErrAsUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("insert application: %w", &pgconn.PgError{Code: "23505"})
	pgErr, ok := errAs(wrapped)
	require.True(t, ok)
	assert.Equal(t, "23505", pgErr.Code)

	_, ok = errAs(fmt.Errorf("connection reset"))
	assert.False(t, ok)
}

package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tournevent/orderquote/internal/store/postgres"
	"github.com/tournevent/orderquote/internal/store/sqlstore"
	"github.com/tournevent/orderquote/internal/store/storetest"
)

// TestStore runs against a live database when ORDERQUOTE_TEST_POSTGRES_DSN
// is set.
func TestStore(t *testing.T) {
	dsn := os.Getenv("ORDERQUOTE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ORDERQUOTE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	s, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	// Isolate this run from earlier ones sharing the database.
	_, err = s.DB().ExecContext(ctx, `DELETE FROM orders`)
	require.NoError(t, err)

	storetest.Run(t, s)
}

func TestDialect(t *testing.T) {
	d := postgres.Dialect()
	require.Equal(t, "$3", d.Placeholder(3))
	require.NotEmpty(t, d.Schema)
	require.False(t, d.IsUniqueViolation(nil))
	require.Equal(t, sqlstore.DollarPlaceholder(1), "$1")
}

package migration

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionStringTakesWriteLockUpFront(t *testing.T) {
	t.Parallel()

	for _, dsn := range []string{"data/bookings.db", "file:data/bookings.db?mode=rwc"} {
		config := DefaultSQLiteConfig(dsn)
		rendered := config.connectionString()
		require.True(t, strings.HasPrefix(rendered, "file:data/bookings.db?"), rendered)

		query, err := url.ParseQuery(rendered[strings.LastIndex(rendered, "?")+1:])
		require.NoError(t, err)
		assert.Equal(t, "immediate", query.Get("_txlock"), dsn)
		assert.Contains(t, query["_pragma"], "foreign_keys(1)")
	}
}
